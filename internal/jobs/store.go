// Package jobs runs bulk extraction jobs and tracks their progress.
package jobs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
)

// Store holds jobs in memory and snapshots their observable state to a JSON
// file after every mutation. Target lists are not persisted: a job
// interrupted by a restart is reported as last snapshotted, not resumed.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*domain.Job
	path   string
	logger *slog.Logger
}

// NewStore loads any previous snapshot from path. An empty path disables
// persistence; a missing or corrupt snapshot starts the store empty.
func NewStore(path string, logger *slog.Logger) *Store {
	s := &Store{
		jobs:   make(map[string]*domain.Job),
		path:   path,
		logger: logger,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.path == "" {
		return
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("job snapshot unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var snapshot map[string]*domain.Job
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.logger.Warn("job snapshot unparseable, starting empty", "path", s.path, "error", err)
		return
	}
	s.jobs = snapshot
	if s.jobs == nil {
		s.jobs = make(map[string]*domain.Job)
	}
}

// persist writes the snapshot; caller holds the lock.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write job snapshot: %w", err)
	}
	return nil
}

// Create registers a new queued job over the target list.
func (s *Store) Create(targets []string, delaySeconds float64) (domain.Job, error) {
	job := &domain.Job{
		ID:           uuid.NewString(),
		Targets:      append([]string(nil), targets...),
		Total:        len(targets),
		Status:       domain.JobQueued,
		DelaySeconds: delaySeconds,
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	if err := s.persist(); err != nil {
		delete(s.jobs, job.ID)
		return domain.Job{}, err
	}
	return job.Clone(), nil
}

// Get returns a copy of one job.
func (s *Store) Get(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	return job.Clone(), nil
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update applies fn to the job under the lock and persists the result. The
// returned copy reflects the applied mutation; a persist failure is returned
// so the orchestrator can abort the run.
func (s *Store) Update(id string, fn func(*domain.Job)) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	fn(job)
	if err := s.persist(); err != nil {
		return domain.Job{}, err
	}
	return job.Clone(), nil
}

// Cancel requests cancellation of a running job. The orchestrator observes
// the status at its next checkpoint; jobs in any other state are rejected.
func (s *Store) Cancel(id string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ports.ErrNotFound
	}
	if job.Status != domain.JobRunning {
		return domain.Job{}, fmt.Errorf("job %s is %s, not running", id, job.Status)
	}
	job.Status = domain.JobCancelled
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := s.persist(); err != nil {
		return domain.Job{}, err
	}
	return job.Clone(), nil
}
