package walk

import (
	"math"

	"navwalk/internal/world"
)

// fakePlanner records every call made by an Action.
type fakePlanner struct {
	enabled   bool
	accept    func(call int, dest world.Vec3) bool
	remaining float64
	status    PathStatus
	onSet     func()

	clearCalls     int
	setCalls       int
	remainingCalls int
	statusCalls    int
	destinations   []world.Vec3
}

func newFakePlanner() *fakePlanner {
	return &fakePlanner{enabled: true, remaining: math.NaN(), status: PathComplete}
}

func (p *fakePlanner) Enabled() bool { return p.enabled }

func (p *fakePlanner) ClearPath() { p.clearCalls++ }

func (p *fakePlanner) SetDestination(dest world.Vec3) bool {
	p.setCalls++
	p.destinations = append(p.destinations, dest)
	if p.onSet != nil {
		p.onSet()
	}
	if p.accept == nil {
		return true
	}
	return p.accept(p.setCalls, dest)
}

func (p *fakePlanner) RemainingDistance() float64 {
	p.remainingCalls++
	return p.remaining
}

func (p *fakePlanner) PathStatus() PathStatus {
	p.statusCalls++
	return p.status
}

func rejectAll(int, world.Vec3) bool { return false }

type namedTarget struct {
	id  string
	pos world.Vec3
}

func (t *namedTarget) ID() string { return t.id }

func (t *namedTarget) Position() world.Vec3 { return t.pos }

type recordingScheduler struct {
	callbacks []func()
}

func (s *recordingScheduler) Register(fn func()) {
	s.callbacks = append(s.callbacks, fn)
}
