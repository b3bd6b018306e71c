package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const defaultInterval = 5 * time.Minute

// Purger drops expired cache entries and reports how many it removed.
type Purger interface {
	PurgeExpired() int
}

// Scheduler periodically purges expired entries from the in-memory cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(purger Purger, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the purge job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.purger == nil {
		s.logger.Info("scheduler: no cache to purge; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.purge)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: cache purge scheduled", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) purge() {
	removed := s.purger.PurgeExpired()
	s.logger.Debug("scheduler: purged expired cache entries", zap.Int("removed", removed))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
