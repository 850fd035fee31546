package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/sample-app/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	sessions services.SessionServiceProvider
	cron     *cron.Cron
	now      func() time.Time
}

// NewScheduler creates a scheduler that sweeps expired sessions on the given
// cron spec (standard five fields or descriptors like "@hourly").
func NewScheduler(sessions services.SessionServiceProvider, sweepSpec string) (*Scheduler, error) {
	s := &Scheduler{
		sessions: sessions,
		cron:     cron.New(),
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(sweepSpec, s.sweepSessions); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", sweepSpec, err)
	}
	return s, nil
}

// AddJob schedules an extra maintenance job under name.
func (s *Scheduler) AddJob(spec, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.Debug().Str("job", name).Msg("Scheduler: running job")
		job()
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	return nil
}

// Run starts the scheduler in the background.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

// sweepSessions deletes expired sessions.
func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to sweep expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Scheduler: swept expired sessions")
	}
}
