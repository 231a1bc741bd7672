package domain

import (
	"testing"
	"time"
)

func TestJobStatusTerminal(t *testing.T) {
	t.Parallel()

	cases := map[JobStatus]bool{
		JobQueued:    false,
		JobRunning:   false,
		JobCompleted: true,
		JobFailed:    true,
		JobCancelled: true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestJobClone(t *testing.T) {
	t.Parallel()

	started := time.Now().UTC()
	job := Job{
		ID:        "j1",
		Targets:   []string{"https://a", "https://b"},
		Failures:  []ItemFailure{{URL: "https://a", Error: "boom"}},
		StartedAt: &started,
	}

	clone := job.Clone()
	clone.Targets[0] = "https://mutated"
	clone.Failures[0].Error = "changed"
	*clone.StartedAt = started.Add(time.Hour)

	if job.Targets[0] != "https://a" {
		t.Fatalf("targets shared: %v", job.Targets)
	}
	if job.Failures[0].Error != "boom" {
		t.Fatalf("failures shared: %v", job.Failures)
	}
	if !job.StartedAt.Equal(started) {
		t.Fatalf("timestamp shared: %v", job.StartedAt)
	}
}
