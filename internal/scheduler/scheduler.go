// Package scheduler runs periodic store maintenance.
package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner is the slice of the store the scheduler needs.
type Pruner interface {
	PruneInactive(olderThan time.Duration) (int, error)
}

type Scheduler struct {
	cron      *cron.Cron
	store     Pruner
	retention time.Duration
}

// New builds a scheduler that prunes users idle for longer than retention.
func New(store Pruner, retention time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		store:     store,
		retention: retention,
	}
}

// Start registers the prune job under the given cron spec and starts the
// ticker.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("scheduler started: pruning users inactive for over %s (%q UTC)", s.retention, spec)
	return nil
}

func (s *Scheduler) run() {
	removed, err := s.store.PruneInactive(s.retention)
	if err != nil {
		log.Printf("prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("pruned %d inactive users", removed)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Printf("scheduler stopped")
}
