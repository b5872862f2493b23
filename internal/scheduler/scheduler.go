// Package scheduler triggers the pipeline on a cron schedule.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner with a single registered job.
type Scheduler struct {
	cron *cron.Cron
}

// New registers job under the given cron spec (standard 5-field syntax,
// e.g. "0 5 * * *" for 05:00 daily).
func New(spec string, job func()) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("failed to register schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start launches the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. A job already running is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
