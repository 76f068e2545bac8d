package walk

import (
	"fmt"

	"navwalk/internal/world"
)

// State is a point-in-time copy of an Action for transport.
type State struct {
	ID               string     `json:"id"`
	WalkType         WalkType   `json:"walkType"`
	Active           bool       `json:"active"`
	StartingPosition world.Vec3 `json:"startingPosition"`
	Position         world.Vec3 `json:"position"`
	HasTarget        bool       `json:"hasTarget"`
	Params           Params     `json:"params"`
	SearchAttempt    int        `json:"searchAttempt"`
	Arrived          bool       `json:"arrived"`
	InRange          bool       `json:"inRange"`
}

func (a *Action) Snapshot() State {
	return State{
		ID:               a.id,
		WalkType:         a.walkType,
		Active:           a.active,
		StartingPosition: a.startingPosition,
		Position:         a.self.Position(),
		HasTarget:        a.target != nil,
		Params:           a.params,
		SearchAttempt:    a.searchAttempt,
		Arrived:          a.HasArrived(),
		InRange:          a.InRange(),
	}
}

func (a *Action) ID() string { return a.id }

func (a *Action) Planner() Planner { return a.planner }

// SearchAttempt is the retry counter of the request in flight; it is zero
// between requests.
func (a *Action) SearchAttempt() int { return a.searchAttempt }

func (a *Action) Active() bool { return a.active }

func (a *Action) SetActive(active bool) { a.active = active }

func (a *Action) WalkType() WalkType { return a.walkType }

func (a *Action) SetWalkType(t WalkType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownWalkType, t)
	}
	a.walkType = t
	return nil
}

func (a *Action) Target() Positioner { return a.target }

// SetTarget swaps the followed target. Pass an untyped nil to clear it.
func (a *Action) SetTarget(target Positioner) { a.target = target }

func (a *Action) StartingPosition() world.Vec3 { return a.startingPosition }

func (a *Action) SetStartingPosition(p world.Vec3) { a.startingPosition = p }

func (a *Action) Params() Params { return a.params }

func (a *Action) SetParams(p Params) { a.params = p }

func (a *Action) AcceptRemainDistance() float64 { return a.params.AcceptRemainDistance }

func (a *Action) SetAcceptRemainDistance(v float64) { a.params.AcceptRemainDistance = v }

func (a *Action) MinOffDistance() float64 { return a.params.MinOffDistance }

func (a *Action) SetMinOffDistance(v float64) { a.params.MinOffDistance = v }

func (a *Action) MaxOffDistance() float64 { return a.params.MaxOffDistance }

func (a *Action) SetMaxOffDistance(v float64) { a.params.MaxOffDistance = v }

func (a *Action) SelfDistance() float64 { return a.params.SelfDistance }

func (a *Action) SetSelfDistance(v float64) { a.params.SelfDistance = v }

func (a *Action) RangeDistance() float64 { return a.params.RangeDistance }

func (a *Action) SetRangeDistance(v float64) { a.params.RangeDistance = v }

func (a *Action) AdjustRangeDistance() float64 { return a.params.AdjustRangeDistance }

func (a *Action) SetAdjustRangeDistance(v float64) { a.params.AdjustRangeDistance = v }
