package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// evictionTimeout bounds one eviction run, including the store deletes
const evictionTimeout = time.Minute

// Evictor drops the sessions that have been idle for too long
type Evictor interface {
	EvictIdle(ctx context.Context, now time.Time) int
}

// Scheduler runs the idle-session eviction job on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	Sessions Evictor
	schedule string
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. schedule accepts standard
// cron expressions and descriptors such as "@every 1m".
func NewScheduler(sessions Evictor, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Sessions: sessions,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the eviction job and begins running it
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.evictIdleSessions); err != nil {
		return fmt.Errorf("register eviction job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("session eviction scheduler started", "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("session eviction scheduler stopped")
}

func (s *Scheduler) evictIdleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), evictionTimeout)
	defer cancel()

	n := s.Sessions.EvictIdle(ctx, s.now())
	zap.S().Debugw("eviction run finished", "evicted", n)
}
