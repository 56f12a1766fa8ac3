// Package scheduler runs the periodic sweeps (overdue invoices, expired
// quotations, rate limiter cleanup) on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/printshop-service/pkg/metrics"
)

// Task does one sweep and reports how many records it changed.
type Task func(ctx context.Context) (int, error)

// Scheduler wraps a cron runner. Tasks get a context that is cancelled
// when the scheduler stops.
type Scheduler struct {
	cron   *cron.Cron
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log.Named("cron").Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers task under name. An empty spec leaves the task disabled.
func (s *Scheduler) Add(name, spec string, task Task) error {
	if spec == "" {
		s.log.Info("sweep disabled", zap.String("sweep", name))
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		_, _ = Run(s.ctx, s.log, name, task)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.Info("sweep scheduled", zap.String("sweep", name), zap.String("spec", spec))
	return nil
}

// Len is the number of scheduled tasks.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running tasks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes task once with logging and metrics. The CLI sweep command
// calls it directly.
func Run(ctx context.Context, log *zap.Logger, name string, task Task) (int, error) {
	start := time.Now()
	n, err := task(ctx)
	elapsed := time.Since(start)
	metrics.RecordSweep(name, n, elapsed, err == nil)
	if err != nil {
		log.Error("sweep failed", zap.String("sweep", name), zap.Int("changed", n), zap.Error(err))
		return n, err
	}
	log.Info("sweep finished", zap.String("sweep", name), zap.Int("changed", n), zap.Duration("took", elapsed))
	return n, nil
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
