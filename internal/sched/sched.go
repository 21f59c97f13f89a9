// Package sched runs the recurring maintenance of serve mode: the attention
// decay tick and the integrity drift sweep. Jobs fire on five-field cron
// schedules; a tick that would overlap a still-running job is skipped, and
// each run gets its own deadline-bounded context.
package sched

import (
	"context"
	"time"
)

// Job is one recurring maintenance task.
type Job interface {
	// Name identifies the job in logs and guards against double registration.
	Name() string

	// Schedule returns the five-field cron expression the job fires on.
	Schedule() string

	// Timeout bounds a single run. Zero means no deadline.
	Timeout() time.Duration

	// Run executes one tick. The context carries the per-run deadline and is
	// cancelled when the scheduler stops.
	Run(ctx context.Context) error
}
