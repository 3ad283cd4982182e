// Package scheduler runs periodic background tasks with explicit cancel handles.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/logger"
)

// Task is a unit of periodic work. The context is cancelled when the
// scheduler stops.
type Task func(ctx context.Context)

// Scheduler owns a cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// Handle cancels a single registered task.
type Handle struct {
	once   sync.Once
	cancel func()
}

// Cancel removes the task. Calling it more than once is a no-op.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
}

func New(log *zap.Logger) *Scheduler {
	log = logger.Component(log, "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every schedules task to run once per interval, the first run one interval
// from now.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) (*Handle, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule %s: interval must be positive", name)
	}
	if task == nil {
		return nil, fmt.Errorf("schedule %s: task is nil", name)
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Debug("running scheduled task", zap.String("task", name))
		task(s.ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}

	s.logger.Info("task scheduled", zap.String("task", name), zap.Duration("interval", interval))

	return &Handle{cancel: func() {
		s.cron.Remove(id)
		s.logger.Info("task cancelled", zap.String("task", name))
	}}, nil
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in the background. It is safe to call repeatedly.
// A stopped scheduler stays stopped.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts scheduling for good and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	started := s.started
	s.started = false
	s.stopped = true
	s.mu.Unlock()

	if !started {
		return
	}
	<-s.cron.Stop().Done()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
