package scheduler

import (
	"context"
	"time"

	"birthday_card_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CoordinationScheduler runs the engine's three periodic scans from an
// in-process cron. Deployments that trigger the scans externally (CI cron,
// cloud scheduler) use cmd/scheduler instead and never start this.
type CoordinationScheduler struct {
	cronEngine           *cron.Cron
	coordination         *app.CoordinationService
	queue                *app.EventQueue
	logger               *logrus.Entry
	cronSpecCoordination string
	cronSpecReveal       string
	cronSpecQueuePoll    string
	queuePollLimit       int
}

func NewCoordinationScheduler(
	coordination *app.CoordinationService,
	queue *app.EventQueue,
	logger *logrus.Entry,
	cronSpecCoordination string, // e.g. "0 0 * * *" (daily threshold scan)
	cronSpecReveal string, // e.g. "0 8 * * *" (daily reveal scan)
	cronSpecQueuePoll string, // e.g. "0 * * * *" (hourly queue poll)
	queuePollLimit int,
) *CoordinationScheduler {
	return &CoordinationScheduler{
		cronEngine:           cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		coordination:         coordination,
		queue:                queue,
		logger:               logger,
		cronSpecCoordination: cronSpecCoordination,
		cronSpecReveal:       cronSpecReveal,
		cronSpecQueuePoll:    cronSpecQueuePoll,
		queuePollLimit:       queuePollLimit,
	}
}

func (s *CoordinationScheduler) Start() {
	s.logger.Info("Starting coordination scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecCoordination, func() {
		s.logger.Info("Cron job triggered for daily coordination check")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.coordination.RunCoordinationScan(ctx, time.Now()); err != nil {
			s.logger.WithError(err).Error("Error during coordination scan")
		}
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add coordination scan cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecReveal, func() {
		s.logger.Info("Cron job triggered for daily reveal check")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.coordination.RunRevealScan(ctx, time.Now()); err != nil {
			s.logger.WithError(err).Error("Error during reveal scan")
		}
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add reveal scan cron job: %v", err)
	}

	_, err = s.cronEngine.AddFunc(s.cronSpecQueuePoll, func() {
		s.logger.Info("Cron job triggered for event queue poll")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.queue.Poll(ctx, time.Now(), s.queuePollLimit); err != nil {
			s.logger.WithError(err).Error("Error during event queue poll")
		}
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add queue poll cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Coordination scheduler started with jobs.")
}

func (s *CoordinationScheduler) Stop() {
	s.logger.Info("Stopping coordination scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Coordination scheduler gracefully stopped.")
}
