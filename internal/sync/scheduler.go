package sync

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/logging"
)

// Runner is the part of the engine the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Scheduler triggers a run on a fixed interval. A tick that lands while a run
// is in progress yields a skipped summary.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   logrus.FieldLogger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a stopped scheduler
func NewScheduler(runner Runner, interval time.Duration, logger logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.WithField("module", "scheduler"),
	}
}

// Start begins ticking. It runs once immediately. Calling Start on a running
// scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.loop(ctx, s.ticker, s.stop)

	s.logger.WithField("interval", s.interval.String()).Info("sync scheduler started")
}

// Stop halts the scheduler and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}

	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info("sync scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	summary, err := s.runner.Run(ctx)
	if err != nil {
		logging.LogError(s.logger, "sync", "Scheduler.tick", "scheduled sync failed", nil, err)
		return
	}
	if summary.Skipped {
		s.logger.Info("scheduled sync skipped, a run is already in progress")
		return
	}
	s.logger.WithFields(logrus.Fields{"runId": summary.RunID, "status": summary.Status}).Info("scheduled sync finished")
}
