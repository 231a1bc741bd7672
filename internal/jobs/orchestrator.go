package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/export"
	"github.com/kkandukuri/pricetracker/internal/ports"
	"github.com/kkandukuri/pricetracker/internal/ratelimit"
	"github.com/kkandukuri/pricetracker/internal/tracker"
)

// Orchestrator drives jobs through the state machine: one worker goroutine
// per job, paced by a per-job rate limiter.
type Orchestrator struct {
	store       *Store
	tracker     *tracker.Tracker
	repo        ports.ProductRepository
	downloadDir string
	logger      *slog.Logger
}

// NewOrchestrator wires an orchestrator over a job store and tracker.
func NewOrchestrator(
	store *Store,
	t *tracker.Tracker,
	repo ports.ProductRepository,
	downloadDir string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		tracker:     t,
		repo:        repo,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// Submit creates a queued job and starts processing it in the background.
func (o *Orchestrator) Submit(ctx context.Context, targets []string, delaySeconds float64) (domain.Job, error) {
	job, err := o.store.Create(targets, delaySeconds)
	if err != nil {
		return domain.Job{}, fmt.Errorf("create job: %w", err)
	}

	go func() {
		if err := o.Run(ctx, job.ID); err != nil {
			o.logger.Error("job run aborted", "job", job.ID, "error", err)
		}
	}()

	return job, nil
}

// Run processes one job to a terminal state. Per-item failures are recorded
// against the job and processing continues; store failures and context
// cancellation fail the job as a whole.
func (o *Orchestrator) Run(ctx context.Context, id string) error {
	job, err := o.store.Update(id, func(j *domain.Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = domain.JobRunning
		now := time.Now().UTC()
		j.StartedAt = &now
	})
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	if job.Status.Terminal() {
		o.logger.Info("job already terminal, not restarting", "job", id, "status", job.Status)
		return nil
	}

	limiter := ratelimit.Every(time.Duration(job.DelaySeconds * float64(time.Second)))

	for i, target := range job.Targets {
		// Cancellation checkpoint: the store flips the status, the worker
		// observes it here and stops between items.
		current, err := o.store.Get(id)
		if err != nil {
			return fmt.Errorf("read job: %w", err)
		}
		if current.Status == domain.JobCancelled {
			o.logger.Info("job cancelled", "job", id, "processed", i)
			return nil
		}

		if err := limiter.Wait(ctx); err != nil {
			return o.fail(id, err)
		}

		if _, err := o.store.Update(id, func(j *domain.Job) {
			j.Current = i + 1
			j.CurrentURL = target
		}); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		itemErr := o.processTarget(ctx, target)
		if itemErr != nil && errors.Is(itemErr, tracker.ErrStore) {
			return o.fail(id, itemErr)
		}

		if _, err := o.store.Update(id, func(j *domain.Job) {
			if itemErr != nil {
				j.Failed++
				j.Failures = append(j.Failures, domain.ItemFailure{
					URL:   target,
					Error: itemErr.Error(),
				})
			} else {
				j.Success++
			}
		}); err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
	}

	artifact, err := o.exportArtifact(ctx, id)
	if err != nil {
		return o.fail(id, fmt.Errorf("export artifact: %w", err))
	}

	_, err = o.store.Update(id, func(j *domain.Job) {
		j.Status = domain.JobCompleted
		now := time.Now().UTC()
		j.CompletedAt = &now
		j.CurrentURL = ""
		j.ArtifactFile = artifact
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	o.logger.Info("job completed", "job", id, "total", job.Total)
	return nil
}

// processTarget handles one URL. A target already tracked counts as success
// without re-fetching, making re-submitted lists idempotent.
func (o *Orchestrator) processTarget(ctx context.Context, target string) error {
	_, err := o.repo.GetByURL(ctx, target)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return errors.Join(tracker.ErrStore, fmt.Errorf("check existing: %w", err))
	}

	if _, err := o.tracker.Track(ctx, target); err != nil {
		return err
	}
	return nil
}

// exportArtifact writes the full product table, images included, as the
// job's downloadable CSV and returns the artifact file name.
func (o *Orchestrator) exportArtifact(ctx context.Context, id string) (string, error) {
	products, err := o.repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}

	if err := os.MkdirAll(o.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name := id + ".csv"
	f, err := os.Create(filepath.Join(o.downloadDir, name))
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	if err := export.WriteProducts(f, products, export.Options{IncludeImages: true}); err != nil {
		return "", err
	}
	return name, nil
}

// ArtifactPath resolves a job's artifact file inside the download directory.
func (o *Orchestrator) ArtifactPath(job domain.Job) string {
	if job.ArtifactFile == "" {
		return ""
	}
	return filepath.Join(o.downloadDir, job.ArtifactFile)
}

func (o *Orchestrator) fail(id string, cause error) error {
	if _, err := o.store.Update(id, func(j *domain.Job) {
		j.Status = domain.JobFailed
		now := time.Now().UTC()
		j.CompletedAt = &now
		j.Error = cause.Error()
	}); err != nil {
		return fmt.Errorf("mark job failed: %w (cause: %v)", err, cause)
	}
	o.logger.Error("job failed", "job", id, "error", cause)
	return nil
}
