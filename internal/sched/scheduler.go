package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives registered jobs on their cron schedules. Registration is
// not safe for concurrent use and must finish before Start.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	names  []string
	ctx    context.Context
	cancel context.CancelFunc
}

// jobState pairs a job with its overlap guard.
type jobState struct {
	job      Job
	inFlight atomic.Bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJob wires a job into the cron table. The schedule is validated
// here, so a bad expression surfaces at startup rather than at first tick.
func (s *Scheduler) RegisterJob(job Job) error {
	name := job.Name()
	for _, existing := range s.names {
		if existing == name {
			return fmt.Errorf("sched: duplicate job name %q", name)
		}
	}

	st := &jobState{job: job}
	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.tick(st) }); err != nil {
		return fmt.Errorf("sched: invalid schedule for job %q: %w", name, err)
	}

	s.names = append(s.names, name)
	return nil
}

// tick executes one run of a job, skipping the tick when the previous run
// has not finished yet. The run context inherits the scheduler's lifetime
// and, when the job declares a timeout, a deadline.
func (s *Scheduler) tick(st *jobState) {
	name := st.job.Name()
	if !st.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("sched: previous run still active, skipping tick", "job", name)
		return
	}
	defer st.inFlight.Store(false)

	ctx := s.ctx
	if d := st.job.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	if err := st.job.Run(ctx); err != nil {
		s.logger.Error("sched: job failed", "job", name, "elapsed", time.Since(start), "error", err)
		return
	}
	s.logger.Debug("sched: job completed", "job", name, "elapsed", time.Since(start))
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	sort.Strings(out)
	return out
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sched: scheduler started", "jobs", len(s.names))
}

// Stop cancels the run context and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("sched: scheduler stopped")
}
