// Package sweeper periodically fails video jobs that outlived their deadline
// and purges finished jobs past the retention window.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JobMaintainer is the subset of the generation service the sweeper drives.
type JobMaintainer interface {
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
	PurgeFinished(ctx context.Context, retention time.Duration) (int64, error)
}

// Config controls the sweep cadence and thresholds.
type Config struct {
	Interval     time.Duration
	StaleAfter   time.Duration
	Retention    time.Duration
	SweepTimeout time.Duration
}

// Sweeper runs Sweep on a cron schedule.
type Sweeper struct {
	jobs   JobMaintainer
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a Sweeper. Call Start to begin sweeping.
func New(jobs JobMaintainer, cfg Config, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval < time.Second {
		return nil, fmt.Errorf("sweep interval must be at least 1s, got %s", cfg.Interval)
	}
	if cfg.SweepTimeout <= 0 {
		cfg.SweepTimeout = cfg.Interval
	}

	cl := cronLogger{logger: logger}
	s := &Sweeper{
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	if _, err := s.cron.AddFunc("@every "+cfg.Interval.String(), s.tick); err != nil {
		return nil, fmt.Errorf("scheduling sweep: %w", err)
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("sweeper started", "interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter,
		"retention", s.cfg.Retention)
}

// Stop halts the schedule and waits for a running sweep to return or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("sweeper stop timed out")
	}
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepTimeout)
	defer cancel()
	s.Sweep(ctx)
}

// Sweep runs one expiry and purge pass. Errors are logged, not returned, so
// one failing store call does not block the other.
func (s *Sweeper) Sweep(ctx context.Context) {
	if s.cfg.StaleAfter > 0 {
		n, err := s.jobs.ExpireStale(ctx, s.cfg.StaleAfter)
		if err != nil {
			s.logger.Error("expiring stale jobs failed", "error", err)
		} else if n > 0 {
			s.logger.Info("expired stale jobs", "count", n)
		}
	}

	if s.cfg.Retention > 0 {
		n, err := s.jobs.PurgeFinished(ctx, s.cfg.Retention)
		if err != nil {
			s.logger.Error("purging finished jobs failed", "error", err)
		} else if n > 0 {
			s.logger.Info("purged finished jobs", "count", n)
		}
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
