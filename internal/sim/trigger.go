package sim

import (
	"math/rand"
	"time"

	"navwalk/internal/world"
)

// Trigger fires registered callbacks on an adjustable cadence: every firing
// reschedules its callback after interval plus a uniform draw from
// [-jitter, jitter]. Time only advances through Advance.
type Trigger struct {
	interval time.Duration
	jitter   time.Duration
	rng      *rand.Rand
	entries  []*triggerEntry
}

type triggerEntry struct {
	fn        func()
	remaining time.Duration
}

const minTriggerDelay = time.Millisecond

func NewTrigger(interval, jitter time.Duration, rng *rand.Rand) *Trigger {
	if interval <= 0 {
		interval = DefaultDecisionInterval
	}
	if jitter < 0 {
		jitter = 0
	}
	if rng == nil {
		rng = world.NewDeterministicRNG(world.DefaultSeed, "trigger")
	}
	return &Trigger{interval: interval, jitter: jitter, rng: rng}
}

// Register implements walk.Scheduler.
func (t *Trigger) Register(fn func()) {
	if fn == nil {
		return
	}
	t.entries = append(t.entries, &triggerEntry{fn: fn, remaining: t.nextDelay()})
}

// Advance moves time forward by dt and fires every callback that came due,
// in registration order. A callback fires at most once per call.
func (t *Trigger) Advance(dt time.Duration) int {
	fired := 0
	for _, entry := range t.entries {
		entry.remaining -= dt
		if entry.remaining > 0 {
			continue
		}
		entry.fn()
		fired++
		entry.remaining = t.nextDelay()
	}
	return fired
}

func (t *Trigger) Len() int { return len(t.entries) }

func (t *Trigger) nextDelay() time.Duration {
	delay := t.interval
	if t.jitter > 0 {
		offset := world.RandomRangeInclusive(t.rng, -float64(t.jitter), float64(t.jitter))
		delay += time.Duration(offset)
	}
	if delay < minTriggerDelay {
		delay = minTriggerDelay
	}
	return delay
}
