package jobs

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	store := NewStore("", discardLogger())
	job, err := store.Create([]string{"https://a", "https://b"}, 1.5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.Status != domain.JobQueued || job.Total != 2 {
		t.Fatalf("job = %+v", job)
	}
	if job.DelaySeconds != 1.5 {
		t.Fatalf("delay = %v", job.DelaySeconds)
	}

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != job.ID || len(got.Targets) != 2 {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetUnknownJob(t *testing.T) {
	t.Parallel()

	store := NewStore("", discardLogger())
	if _, err := store.Get("missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewStore("", discardLogger())
	job, err := store.Create([]string{"https://a"}, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.Update(job.ID, func(j *domain.Job) {
		j.Status = domain.JobRunning
		j.Current = 1
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.JobRunning || updated.Current != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	// Mutating the copy must not leak back into the store.
	updated.Current = 99
	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Current != 1 {
		t.Fatalf("store mutated through copy: %+v", got)
	}
}

func TestCancelStates(t *testing.T) {
	t.Parallel()

	store := NewStore("", discardLogger())
	job, err := store.Create([]string{"https://a"}, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only running jobs can be cancelled.
	if _, err := store.Cancel(job.ID); err == nil {
		t.Fatal("expected error cancelling a queued job")
	}

	if _, err := store.Update(job.ID, func(j *domain.Job) {
		j.Status = domain.JobRunning
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	cancelled, err := store.Cancel(job.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.JobCancelled || cancelled.CompletedAt == nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}

	if _, err := store.Cancel(job.ID); err == nil {
		t.Fatal("expected error cancelling a terminal job")
	}
}

func TestSnapshotPersistsAcrossRestarts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "jobs.json")

	store := NewStore(path, discardLogger())
	job, err := store.Create([]string{"https://a", "https://b"}, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Update(job.ID, func(j *domain.Job) {
		j.Status = domain.JobRunning
		j.Current = 1
		j.Success = 1
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded := NewStore(path, discardLogger())
	got, err := reloaded.Get(job.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.Status != domain.JobRunning || got.Current != 1 || got.Success != 1 {
		t.Fatalf("reloaded = %+v", got)
	}
	// Target lists are deliberately not persisted.
	if len(got.Targets) != 0 {
		t.Fatalf("targets leaked into snapshot: %+v", got.Targets)
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore("", discardLogger())
	for _, target := range []string{"https://a", "https://b"} {
		if _, err := store.Create([]string{target}, 0); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Fatalf("list not newest-first: %s then %s", list[0].ID, list[1].ID)
	}
}
