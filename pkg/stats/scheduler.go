package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/arbitros/designaciones/pkg/observability"
)

// refreshTimeout bounds a single refresh run
const refreshTimeout = time.Minute

// Scheduler runs Aggregator.Refresh on a cron schedule
type Scheduler struct {
	aggregator *Aggregator
	logger     logrus.FieldLogger
	cron       *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	initial sync.WaitGroup
}

// NewScheduler creates a scheduler; call Start to begin
func NewScheduler(aggregator *Aggregator, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		aggregator: aggregator,
		logger:     logger.WithField("component", "stats"),
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the refresh and runs it once immediately. Refreshes stop
// when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.run()
	}()
	s.cron.Start()
	s.logger.WithField("schedule", schedule).Info("stats refresh scheduled")
	return nil
}

// Stop stops scheduling and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
}

// Shutdown adapts Stop to observability.ShutdownFunc
func (s *Scheduler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer observability.RecoverPanic(s.logger, "stats refresh")

	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil || parent.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	start := time.Now()
	snap, err := s.aggregator.Refresh(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("stats refresh failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"delegates": len(snap),
		"duration":  time.Since(start).String(),
	}).Debug("stats refreshed")
}
