package sim

import (
	"context"
	"time"
)

// DefaultStepInterval is the wall-clock cadence of Run when none is given.
const DefaultStepInterval = 100 * time.Millisecond

// Run steps the world every interval until ctx ends. Each resulting
// snapshot is handed to report when it is set.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, report func(Snapshot)) {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(interval)
			if report != nil {
				report(s.Snapshot())
			}
		}
	}
}
