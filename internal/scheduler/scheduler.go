package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a run is requested while another is still executing.
var ErrRunInProgress = errors.New("a contest run is already in progress")

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Trigger names what started a run.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// Runner is one full pipeline execution.
type Runner interface {
	ProcessContests(ctx context.Context, log *slog.Logger) error
}

// RunResult describes the most recently finished run.
type RunResult struct {
	RunID    string
	Trigger  Trigger
	Started  time.Time
	Finished time.Time
	Err      error
}

// Scheduler executes the runner once at start-up and then on a cron schedule.
// At most one run is in flight at any time; overlapping requests are rejected.
type Scheduler struct {
	runner     Runner
	spec       string
	location   *time.Location
	runTimeout time.Duration

	mu       sync.Mutex
	state    State
	last     *RunResult
	baseCtx  context.Context
	stopping bool
	wg       sync.WaitGroup
}

func New(runner Runner, spec string, location *time.Location, runTimeout time.Duration) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		runner:     runner,
		spec:       spec,
		location:   location,
		runTimeout: runTimeout,
		baseCtx:    context.Background(),
	}
}

// State reports whether a run is currently executing.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastRun returns the result of the most recent finished run, or nil.
func (s *Scheduler) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return false
	}
	s.state = Running
	return true
}

// RunNow executes a run synchronously, or returns ErrRunInProgress.
func (s *Scheduler) RunNow(ctx context.Context, trigger Trigger) error {
	if !s.acquire() {
		return ErrRunInProgress
	}
	return s.run(ctx, trigger)
}

// TryStart starts a run in the background and reports whether it was started.
// Background runs are cancelled when the context passed to Start is done.
// Once shutdown has begun no new run is started.
func (s *Scheduler) TryStart(trigger Trigger) bool {
	s.mu.Lock()
	ctx := s.baseCtx
	if s.stopping || ctx.Err() != nil || s.state == Running {
		s.mu.Unlock()
		return false
	}
	s.state = Running
	// Add under mu so it can never race the Wait in Start.
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_ = s.run(ctx, trigger)
	}()
	return true
}

// run must only be called after a successful acquire.
func (s *Scheduler) run(ctx context.Context, trigger Trigger) (err error) {
	result := RunResult{RunID: uuid.NewString(), Trigger: trigger, Started: time.Now()}
	log := slog.With("run_id", result.RunID, "trigger", string(trigger))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during contest run: %v", r)
		}
		result.Finished = time.Now()
		result.Err = err

		if err != nil {
			log.Error("Contest run failed", "error", err, "elapsed", result.Finished.Sub(result.Started))
		} else {
			log.Info("Contest run finished", "elapsed", result.Finished.Sub(result.Started))
		}

		s.mu.Lock()
		s.state = Idle
		s.last = &result
		s.mu.Unlock()
	}()

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	log.Info("Starting contest run")
	return s.runner.ProcessContests(ctx, log)
}

// Start performs the start-up run, then fires the runner on the cron schedule
// until ctx is done. It waits for in-flight runs before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	c := cron.New(cron.WithLocation(s.location))
	if _, err := c.AddFunc(s.spec, func() {
		if err := s.RunNow(ctx, TriggerSchedule); errors.Is(err, ErrRunInProgress) {
			slog.Warn("Skipping scheduled contest run, previous run still in progress")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	if err := s.RunNow(ctx, TriggerStartup); errors.Is(err, ErrRunInProgress) {
		slog.Warn("Skipping start-up contest run, a run is already in progress")
	}

	c.Start()
	slog.Info("Contest schedule started", "schedule", s.spec, "location", s.location.String())

	<-ctx.Done()
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	<-c.Stop().Done()
	s.wg.Wait()
	slog.Info("Contest schedule stopped")
	return nil
}
