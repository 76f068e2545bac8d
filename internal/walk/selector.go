package walk

import (
	"fmt"
	"math/rand"

	"navwalk/internal/world"
)

// maxDirectionDraws bounds the redraws of a degenerate (0, 0) direction
// sample before falling back to +X.
const maxDirectionDraws = 8

// Request carries everything needed to compute one destination.
type Request struct {
	WalkType WalkType
	// Agent is the agent's current position.
	Agent world.Vec3
	// Target is only read when HasTarget is set.
	Target    world.Vec3
	HasTarget bool
	// Start is the position recorded when the agent was created.
	Start  world.Vec3
	Params Params
}

// Selector computes destinations. It is not safe for concurrent use; each
// agent owns its own.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = world.NewDeterministicRNG(world.DefaultSeed, "walk.selector")
	}
	return &Selector{rng: rng}
}

// RandomDirection returns a unit vector on the horizontal plane. X and Z are
// drawn independently from [-1, 1] before normalizing, so diagonals are
// slightly favoured.
func (s *Selector) RandomDirection() world.Vec3 {
	for i := 0; i < maxDirectionDraws; i++ {
		v := world.Vec3{
			X: world.RandomRangeInclusive(s.rng, -1, 1),
			Z: world.RandomRangeInclusive(s.rng, -1, 1),
		}
		if v.HorizontalLength() > 0 {
			return v.Normalized()
		}
	}
	return world.Vec3{X: 1}
}

// RangeDistance returns RangeDistance adjusted by a uniform draw from
// [-AdjustRangeDistance, AdjustRangeDistance], floored at zero.
func (s *Selector) RangeDistance(p Params) float64 {
	n := p.Normalized()
	d := n.RangeDistance
	if n.AdjustRangeDistance > 0 {
		d += world.RandomRangeInclusive(s.rng, -n.AdjustRangeDistance, n.AdjustRangeDistance)
	}
	if d < 0 {
		return 0
	}
	return d
}

// OffDistance returns the jitter magnitude, inclusive on both bounds.
func (s *Selector) OffDistance(p Params) float64 {
	n := p.Normalized()
	return world.RandomRangeInclusive(s.rng, n.MinOffDistance, n.MaxOffDistance)
}

// Destination derives the point for req.WalkType and adds horizontal jitter.
// The elevation of the result always equals that of its reference point: the
// start position, the target, or the agent for TargetClosestPoint.
func (s *Selector) Destination(req Request) (world.Vec3, error) {
	if req.WalkType.RequiresTarget() && !req.HasTarget {
		return world.Vec3{}, ErrTargetRequired
	}

	var dest world.Vec3
	switch req.WalkType {
	case SelfInDistance:
		dest = s.around(req.Start, req.Params.Normalized().SelfDistance)
	case TargetClosestPoint:
		dest = s.closest(req.Agent, req.Target, s.RangeDistance(req.Params))
	case TargetInRange:
		dest = s.around(req.Target, s.RangeDistance(req.Params))
	default:
		return world.Vec3{}, fmt.Errorf("%w: %q", ErrUnknownWalkType, req.WalkType)
	}

	return dest.Add(s.RandomDirection().Scale(s.OffDistance(req.Params))), nil
}

func (s *Selector) around(center world.Vec3, distance float64) world.Vec3 {
	return center.Add(s.RandomDirection().Scale(distance))
}

// closest places the point on the horizontal line from target toward agent,
// distance away from target, at the agent's elevation. An agent directly
// above, below or on the target has no heading, so a random one is used.
func (s *Selector) closest(agent, target world.Vec3, distance float64) world.Vec3 {
	dir := agent.Sub(target).Normalized()
	hyp := dir.HorizontalLength()
	if hyp == 0 {
		dir = s.RandomDirection()
		hyp = 1
	}
	ratio := distance / hyp
	return world.Vec3{
		X: target.X + dir.X*ratio,
		Y: agent.Y,
		Z: target.Z + dir.Z*ratio,
	}
}

// WithinRange reports whether agent is no farther from target than the
// largest distance walkType can place a destination from its reference.
func WithinRange(agent, target world.Vec3, walkType WalkType, p Params) bool {
	return world.Distance(agent, target) <= p.MaxDistance(walkType)
}
