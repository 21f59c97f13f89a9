package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// tickJob records the context of every run it receives.
type tickJob struct {
	name     string
	schedule string
	timeout  time.Duration
	runFunc  func(ctx context.Context) error

	mu   sync.Mutex
	ctxs []context.Context
}

func (j *tickJob) Name() string           { return j.name }
func (j *tickJob) Schedule() string       { return j.schedule }
func (j *tickJob) Timeout() time.Duration { return j.timeout }

func (j *tickJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.ctxs = append(j.ctxs, ctx)
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func (j *tickJob) runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.ctxs)
}

func TestScheduler_RegisterJob_DuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(&tickJob{name: "decay", schedule: "* * * * *"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := s.RegisterJob(&tickJob{name: "decay", schedule: "* * * * *"}); err == nil {
		t.Fatal("duplicate registration must fail")
	}
}

func TestScheduler_RegisterJob_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(&tickJob{name: "bad", schedule: "every full moon"}); err == nil {
		t.Fatal("invalid schedule must fail at registration")
	}
	if got := s.Jobs(); len(got) != 0 {
		t.Errorf("jobs = %v, want none after rejected registration", got)
	}
}

func TestScheduler_Jobs_Sorted(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	for _, name := range []string{"drift", "decay"} {
		if err := s.RegisterJob(&tickJob{name: name, schedule: "* * * * *"}); err != nil {
			t.Fatal(err)
		}
	}
	got := s.Jobs()
	if len(got) != 2 || got[0] != "decay" || got[1] != "drift" {
		t.Errorf("jobs = %v, want [decay drift]", got)
	}
}

func TestScheduler_TickCarriesDeadline(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	job := &tickJob{name: "decay", schedule: "* * * * *", timeout: time.Minute}

	s.tick(&jobState{job: job})

	job.mu.Lock()
	defer job.mu.Unlock()
	if len(job.ctxs) != 1 {
		t.Fatalf("runs = %d, want 1", len(job.ctxs))
	}
	if _, ok := job.ctxs[0].Deadline(); !ok {
		t.Error("run context has no deadline despite job timeout")
	}
}

func TestScheduler_TickWithoutTimeout(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	job := &tickJob{name: "decay", schedule: "* * * * *"}

	s.tick(&jobState{job: job})

	job.mu.Lock()
	defer job.mu.Unlock()
	if len(job.ctxs) != 1 {
		t.Fatalf("runs = %d, want 1", len(job.ctxs))
	}
	if _, ok := job.ctxs[0].Deadline(); ok {
		t.Error("run context carries a deadline for a zero-timeout job")
	}
}

func TestScheduler_OverlappingTickSkipped(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	job := &tickJob{
		name:     "slow",
		schedule: "* * * * *",
		runFunc: func(context.Context) error {
			startedOnce.Do(func() { close(started) })
			<-release
			return nil
		},
	}
	st := &jobState{job: job}

	s := NewScheduler(nil)
	done := make(chan struct{})
	go func() {
		s.tick(st)
		close(done)
	}()
	<-started

	// Second tick while the first is still running: must be a no-op.
	s.tick(st)
	if job.runs() != 1 {
		t.Errorf("runs = %d, want 1 (overlapping tick must be skipped)", job.runs())
	}

	close(release)
	<-done
	s.tick(st)
	if job.runs() != 2 {
		t.Errorf("runs = %d, want 2 after the first run finished", job.runs())
	}
}

func TestScheduler_TickSwallowsJobError(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	job := &tickJob{
		name:     "failing",
		schedule: "* * * * *",
		runFunc:  func(context.Context) error { return errors.New("store down") },
	}

	// A failing run is logged, not fatal, and the next tick runs again.
	st := &jobState{job: job}
	s.tick(st)
	s.tick(st)
	if job.runs() != 2 {
		t.Errorf("runs = %d, want 2", job.runs())
	}
}

func TestScheduler_StopCancelsRunContext(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if err := s.RegisterJob(&tickJob{name: "decay", schedule: "* * * * *"}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()

	if s.ctx.Err() == nil {
		t.Error("scheduler context still live after Stop")
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	s.Stop() // must not panic or block
}
