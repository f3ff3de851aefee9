// Package jobs runs the periodic housekeeping tasks: purging expired
// one-time codes and physically deleting sessions long after their
// revocation.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"nextlevel/api/internal/repository"
)

type Scheduler struct {
	cron      *cron.Cron
	sessions  *repository.SessionRepository
	otps      *repository.OTPRepository
	retention time.Duration
	log       zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, otps *repository.OTPRepository, retention time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sessions:  sessions,
		otps:      otps,
		retention: retention,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeExpiredOTPs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", s.purgeRevokedSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits up to five seconds for running
// jobs to finish.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeExpiredOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.otps.DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("otp purge failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired otps purged")
	}
}

// purgeRevokedSessions removes sessions that have been revoked for
// longer than the retention window. Active sessions are never touched,
// so revocation stays soft from the application's point of view.
func (s *Scheduler) purgeRevokedSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.retention)
	deleted, err := s.sessions.DeleteRevokedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("revoked sessions purged")
	}
}
