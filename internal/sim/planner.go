package sim

import (
	"math"

	"navwalk/internal/walk"
	"navwalk/internal/world"
)

// FlatPlanner stands in for a navigation mesh over an obstacle-free
// rectangle. Destinations outside the rectangle are unreachable; reachable
// ones are walked in a straight line.
type FlatPlanner struct {
	bounds      world.Config
	body        *Body
	enabled     bool
	destination *world.Vec3
}

func NewFlatPlanner(bounds world.Config, body *Body) *FlatPlanner {
	return &FlatPlanner{bounds: bounds.Normalized(), body: body, enabled: true}
}

func (p *FlatPlanner) Enabled() bool { return p.enabled }

func (p *FlatPlanner) SetEnabled(enabled bool) { p.enabled = enabled }

func (p *FlatPlanner) ClearPath() { p.destination = nil }

func (p *FlatPlanner) SetDestination(dest world.Vec3) bool {
	if math.IsNaN(dest.X) || math.IsNaN(dest.Z) || !world.Contains(p.bounds, dest) {
		return false
	}
	p.destination = &dest
	return true
}

// RemainingDistance is NaN while no destination is set.
func (p *FlatPlanner) RemainingDistance() float64 {
	if p.destination == nil {
		return math.NaN()
	}
	return world.HorizontalDistance(p.body.Position(), *p.destination)
}

func (p *FlatPlanner) PathStatus() walk.PathStatus {
	if p.destination == nil {
		return walk.PathInvalid
	}
	return walk.PathComplete
}

// Destination returns the current destination, if any.
func (p *FlatPlanner) Destination() (world.Vec3, bool) {
	if p.destination == nil {
		return world.Vec3{}, false
	}
	return *p.destination, true
}

// Step moves the body toward its destination for dt seconds at body speed.
// The destination is kept after arrival so progress reads zero.
func (p *FlatPlanner) Step(dt float64) {
	if !p.enabled || p.destination == nil || dt <= 0 {
		return
	}
	pos := p.body.Position()
	delta := p.destination.Sub(pos).Horizontal()
	dist := delta.HorizontalLength()
	if dist == 0 {
		return
	}
	step := p.body.Speed() * dt
	if step >= dist {
		p.body.SetPosition(world.Vec3{X: p.destination.X, Y: pos.Y, Z: p.destination.Z})
		return
	}
	p.body.SetPosition(pos.Add(delta.Scale(step / dist)))
}
