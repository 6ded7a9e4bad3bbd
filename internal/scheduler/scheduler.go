package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Refresher is anything that can reload its data, such as a screen.
type Refresher interface {
	Refresh()
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	targets map[string]Refresher
}

// NewScheduler creates a new Scheduler with a seconds field in its specs.
func NewScheduler() *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		targets: make(map[string]Refresher),
	}
}

// RegisterRefresh runs target.Refresh on spec.
func (s *Scheduler) RegisterRefresh(name, spec string, target Refresher) error {
	s.targets[name] = target
	if _, err := s.Cron.AddFunc(spec, func() { s.refresh(name) }); err != nil {
		delete(s.targets, name)
		return fmt.Errorf("register %s refresh: %w", name, err)
	}
	log.Info().Str("task", name).Str("spec", spec).Msg("refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow refreshes the named target immediately.
func (s *Scheduler) RunNow(name string) bool {
	if _, ok := s.targets[name]; !ok {
		return false
	}
	s.refresh(name)
	return true
}

func (s *Scheduler) refresh(name string) {
	log.Info().Str("task", name).Msg("running scheduled refresh")
	s.targets[name].Refresh()
}
