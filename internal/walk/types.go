// Package walk picks navigation destinations for a single agent.
//
// An Action owns one agent's walk state. Its decision callback is driven by an
// external Scheduler; each decision asks the Selector for a destination and
// hands it to a Planner, retrying a bounded number of times when the planner
// refuses the point. Arrival is derived from planner progress on demand.
package walk

import (
	"errors"
	"fmt"
	"strings"

	"navwalk/internal/world"
)

var (
	ErrTargetRequired  = errors.New("walk: walk type requires a target")
	ErrUnknownWalkType = errors.New("walk: unknown walk type")
	ErrMissingPlanner  = errors.New("walk: planner is required")
	ErrMissingSelf     = errors.New("walk: self position provider is required")
)

// WalkType selects the rule used to derive a destination.
type WalkType string

const (
	// SelfInDistance roams on a ring around the starting position.
	SelfInDistance WalkType = "SELF_IN_DISTANCE"
	// TargetClosestPoint approaches the point on the agent/target line at
	// range distance from the target.
	TargetClosestPoint WalkType = "TARGET_CLOSEST_POINT"
	// TargetInRange roams on a ring around the target.
	TargetInRange WalkType = "TARGET_IN_RANGE"
)

// WalkTypes lists every supported walk type.
var WalkTypes = []WalkType{SelfInDistance, TargetClosestPoint, TargetInRange}

func (t WalkType) Valid() bool {
	switch t {
	case SelfInDistance, TargetClosestPoint, TargetInRange:
		return true
	}
	return false
}

// RequiresTarget reports whether destinations are derived from a target.
func (t WalkType) RequiresTarget() bool {
	return t == TargetClosestPoint || t == TargetInRange
}

func (t WalkType) String() string {
	return string(t)
}

// ParseWalkType accepts the wire name in any letter case. The empty string
// maps to SelfInDistance.
func ParseWalkType(raw string) (WalkType, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return SelfInDistance, nil
	}
	t := WalkType(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownWalkType, raw)
	}
	return t, nil
}

func (t *WalkType) UnmarshalText(text []byte) error {
	parsed, err := ParseWalkType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PathStatus mirrors the planner's view of its current path.
type PathStatus uint8

const (
	PathComplete PathStatus = iota
	PathPartial
	PathInvalid
)

func (s PathStatus) String() string {
	switch s {
	case PathComplete:
		return "complete"
	case PathPartial:
		return "partial"
	case PathInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Planner is the path-planning collaborator. SetDestination returns false
// when the point is unreachable; RemainingDistance may be NaN while no path
// has been computed.
type Planner interface {
	Enabled() bool
	ClearPath()
	SetDestination(dest world.Vec3) bool
	RemainingDistance() float64
	PathStatus() PathStatus
}

// Positioner exposes a live position. Targets are held by reference and
// never owned by an Action.
type Positioner interface {
	Position() world.Vec3
}

// PositionFunc adapts a function to Positioner.
type PositionFunc func() world.Vec3

func (f PositionFunc) Position() world.Vec3 {
	return f()
}

// Fixed is a Positioner that never moves.
type Fixed world.Vec3

func (p Fixed) Position() world.Vec3 {
	return world.Vec3(p)
}

// Scheduler invokes registered callbacks on its own cadence.
type Scheduler interface {
	Register(fn func())
}

// identified is implemented by positioners that can name themselves in
// emitted events.
type identified interface {
	ID() string
}
