package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/integrity"
)

// WeightDecayer is the subset of the attention ledger needed by the decay
// job. Defined here to keep the scheduler free of attention internals.
type WeightDecayer interface {
	DecayAll() error
	Len() int
}

// AttentionDecayJob applies one decay tick to the attention ledger on a
// schedule, so weights fade even when no compilation runs.
type AttentionDecayJob struct {
	Ledger       WeightDecayer
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*AttentionDecayJob)(nil)

// Name implements Job.
func (j *AttentionDecayJob) Name() string { return "attention_decay" }

// Schedule implements Job.
func (j *AttentionDecayJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Timeout implements Job. One tick is a map walk plus a store write.
func (j *AttentionDecayJob) Timeout() time.Duration { return 30 * time.Second }

// Run applies one decay tick.
func (j *AttentionDecayJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.Ledger.DecayAll(); err != nil {
		return fmt.Errorf("sched: decay tick: %w", err)
	}
	j.Logger.Debug("sched: attention decayed", "tracked", j.Ledger.Len())
	return nil
}

// DriftChecker is the subset of the integrity monitor needed by the drift
// sweep.
type DriftChecker interface {
	CheckDrift(sections []compiler.Section) ([]integrity.Deviation, error)
}

// DeviationRecorder receives the deviation count of each sweep, typically a
// metrics gauge.
type DeviationRecorder interface {
	RecordDeviations(n int)
}

// IntegrityDriftJob sweeps the critical sections for drift on a schedule.
// It only detects and reports; restoring stays an operator decision.
type IntegrityDriftJob struct {
	Monitor      DriftChecker
	Recorder     DeviationRecorder // optional
	LoadCritical func() ([]compiler.Section, error)
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/15 * * * *"
}

// Compile-time interface check.
var _ Job = (*IntegrityDriftJob)(nil)

// Name implements Job.
func (j *IntegrityDriftJob) Name() string { return "integrity_drift" }

// Schedule implements Job.
func (j *IntegrityDriftJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/15 * * * *"
}

// Timeout implements Job. The sweep reads and hashes every critical file.
func (j *IntegrityDriftJob) Timeout() time.Duration { return time.Minute }

// Run loads the current critical sections and checks them for drift.
func (j *IntegrityDriftJob) Run(ctx context.Context) error {
	sections, err := j.LoadCritical()
	if err != nil {
		return fmt.Errorf("sched: load critical sections: %w", err)
	}
	if len(sections) == 0 {
		return nil
	}
	// The sweep can straddle a shutdown: bail between the load and the
	// hash pass rather than persisting a half-considered result.
	if err := ctx.Err(); err != nil {
		return err
	}

	deviations, err := j.Monitor.CheckDrift(sections)
	if err != nil {
		return fmt.Errorf("sched: drift sweep: %w", err)
	}
	if j.Recorder != nil {
		j.Recorder.RecordDeviations(len(deviations))
	}
	if len(deviations) > 0 {
		j.Logger.Warn("sched: drift detected", "deviations", len(deviations))
	}
	return nil
}
