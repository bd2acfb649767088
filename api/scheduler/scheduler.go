package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultVisitorIdle is how long an HTTP client must be quiet before its limiter state is dropped
const DefaultVisitorIdle = 30 * time.Minute

// Sweeper forgets state idle for longer than the given duration
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron     *cron.Cron
	visitors Sweeper
	idle     time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(visitors Sweeper, idle time.Duration) *Scheduler {
	if idle <= 0 {
		idle = DefaultVisitorIdle
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		visitors: visitors,
		idle:     idle,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.sweepVisitors); err != nil {
		return err
	}
	s.cron.Start()
	zap.S().Info("scheduler started")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) sweepVisitors() {
	if removed := s.visitors.Sweep(s.idle); removed > 0 {
		zap.S().Debugw("swept idle http visitors", "removed", removed)
	}
}
