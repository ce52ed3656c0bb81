package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TokenPurger removes stale refresh tokens. Implemented by AccountService.
type TokenPurger interface {
	PurgeTokens(ctx context.Context, maxAge time.Duration) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron          *cron.Cron
	purger        TokenPurger
	logger        *logrus.Logger
	cleanupSpec   string
	revokedMaxAge time.Duration
	jobTimeout    time.Duration
}

// NewCronService creates a new CronService. cleanupSpec uses the six-field
// format with seconds: "0 30 3 * * *" runs at 03:30 every day.
func NewCronService(purger TokenPurger, logger *logrus.Logger, cleanupSpec string, revokedMaxAge time.Duration) *CronService {
	return &CronService{
		cron:          cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		purger:        purger,
		logger:        logger,
		cleanupSpec:   cleanupSpec,
		revokedMaxAge: revokedMaxAge,
		jobTimeout:    time.Minute,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cleanupSpec, s.purgeTokensJob); err != nil {
		return fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}
	s.logger.WithField("spec", s.cleanupSpec).Info("Scheduled refresh token cleanup")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) purgeTokensJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.purger.PurgeTokens(ctx, s.revokedMaxAge)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Refresh token cleanup failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  n,
		"duration": time.Since(start).String(),
	}).Info("[CRON] Refresh token cleanup finished")
}
