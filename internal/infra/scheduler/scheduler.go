package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"vaccine_slot_notifier/internal/app"
)

// CycleScheduler triggers check cycles on a cron spec and once at start.
type CycleScheduler struct {
	cronEngine *cron.Cron
	runner     app.CycleRunner
	cronSpec   string
	timeout    time.Duration
	logger     *logrus.Entry

	eager sync.WaitGroup
}

func NewCycleScheduler(
	runner app.CycleRunner,
	cronSpec string, // e.g. "*/10 * * * *"
	location *time.Location,
	timeout time.Duration, // per cycle deadline
	logger *logrus.Entry,
) *CycleScheduler {
	if location == nil {
		location = time.Local
	}
	cronLogger := cron.PrintfLogger(logger)
	return &CycleScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:   runner,
		cronSpec: cronSpec,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the cycle job, runs it once right away and starts the cron
// engine. The eager run goes through the same chain, so a tick firing while it
// is still running is skipped.
func (s *CycleScheduler) Start() error {
	s.logger.Info("Starting cycle scheduler...")

	id, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for check cycle.")
		s.executeCycle()
	})
	if err != nil {
		return fmt.Errorf("could not add check cycle cron job %q: %w", s.cronSpec, err)
	}

	job := s.cronEngine.Entry(id).WrappedJob
	s.eager.Add(1)
	go func() {
		defer s.eager.Done()
		s.logger.Info("Running initial check cycle.")
		job.Run()
	}()

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Cycle scheduler started.")
	return nil
}

func (s *CycleScheduler) executeCycle() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.runner.RunCycle(ctx)
	switch {
	case errors.Is(err, app.ErrCycleInProgress):
		s.logger.Info("Check cycle skipped, another one is in progress.")
	case err != nil:
		s.logger.WithError(err).Error("Check cycle failed.")
	default:
		s.logger.WithFields(logrus.Fields{
			"cycle_id":   result.ID,
			"slot_found": result.SlotFound,
		}).Debug("Check cycle finished.")
	}
}

// Stop stops new ticks and waits for a running cycle to finish.
func (s *CycleScheduler) Stop() {
	s.logger.Info("Stopping cycle scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.eager.Wait()
	s.logger.Info("Cycle scheduler gracefully stopped.")
}
