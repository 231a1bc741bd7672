package domain

import "time"

// JobStatus enumerates the bulk-run state machine.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// ItemFailure records one target that could not be processed.
type ItemFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Job is one bulk run over an ordered target list. It is mutated only by
// the orchestrator that owns it; observers get copies via the job store.
// Targets are held in memory only: an interrupted job is not resumable and
// may stay "running" with stale progress until externally reconciled.
type Job struct {
	ID           string        `json:"id"`
	Targets      []string      `json:"-"`
	Total        int           `json:"total"`
	Current      int           `json:"current"`
	Success      int           `json:"success"`
	Failed       int           `json:"failed"`
	CurrentURL   string        `json:"current_url"`
	Status       JobStatus     `json:"status"`
	DelaySeconds float64       `json:"delay_seconds"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ArtifactFile string        `json:"artifact_file,omitempty"`
	Failures     []ItemFailure `json:"failures,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (j Job) Clone() Job {
	out := j
	out.Targets = append([]string(nil), j.Targets...)
	out.Failures = append([]ItemFailure(nil), j.Failures...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
