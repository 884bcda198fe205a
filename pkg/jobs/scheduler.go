package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a named unit of periodic background work.
type Task struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// RunOnStart runs the task immediately instead of waiting one interval.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs registered tasks on fixed intervals, each in its own goroutine, retrying failed
// runs with a delay before giving up until the next tick.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	tasks   []Task
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler builds an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Add registers a task. Tasks must be added before Start.
func (s *Scheduler) Add(task Task) error {
	if task.Run == nil {
		return errors.New("jobs: task has no run function")
	}
	if task.Interval <= 0 {
		return errors.New("jobs: task interval must be positive")
	}
	if task.Timeout <= 0 {
		task.Timeout = task.Interval
	}
	if task.RetryDelay <= 0 {
		task.RetryDelay = time.Second
	}
	if task.MaxRetries < 0 {
		task.MaxRetries = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("jobs: scheduler already started")
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start launches every registered task. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
	s.started = true
	s.logger.Sugar().Infow("scheduler started", "tasks", len(s.tasks))
}

// Stop cancels running tasks and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()
	if task.RunOnStart {
		s.runWithRetry(ctx, task)
	}
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runWithRetry(ctx, task)
		}
	}
}

func (s *Scheduler) runWithRetry(ctx context.Context, task Task) {
	for attempt := 0; ; attempt++ {
		err := s.runOnce(ctx, task)
		if err == nil || ctx.Err() != nil {
			return
		}
		if attempt >= task.MaxRetries {
			s.logger.Sugar().Errorw("task exceeded retries", "task", task.Name, "attempts", attempt+1, "error", err)
			return
		}
		s.logger.Sugar().Warnw("task failed, retrying", "task", task.Name, "attempt", attempt+1, "error", err)

		timer := time.NewTimer(task.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) error {
	runCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()
	return task.Run(runCtx)
}
