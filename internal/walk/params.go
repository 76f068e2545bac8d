package walk

import (
	"errors"
	"fmt"
	"math"
)

// Params holds the distance tuning of a walk action. Setters store raw
// values; Normalized is applied at use.
type Params struct {
	// AcceptRemainDistance is the remaining path length that counts as arrived.
	AcceptRemainDistance float64 `json:"acceptRemainDistance" jsonschema:"minimum=0,description=Remaining distance that counts as arrived"`
	// MinOffDistance and MaxOffDistance bound the jitter added to every destination.
	MinOffDistance float64 `json:"minOffDistance" jsonschema:"minimum=0,description=Lower bound of the random offset added to every destination"`
	MaxOffDistance float64 `json:"maxOffDistance" jsonschema:"minimum=0,description=Upper bound of the random offset added to every destination"`
	// SelfDistance is the roaming radius around the starting position.
	SelfDistance float64 `json:"selfDistance" jsonschema:"minimum=0,description=Roaming radius around the starting position"`
	// RangeDistance is the base radius kept from the target.
	RangeDistance float64 `json:"rangeDistance" jsonschema:"minimum=0,description=Base distance kept from the target"`
	// AdjustRangeDistance randomly widens or narrows RangeDistance.
	AdjustRangeDistance float64 `json:"adjustRangeDistance" jsonschema:"minimum=0,description=Symmetric random adjustment of the range distance"`
}

// DefaultParams returns the stock tuning: a small arrival tolerance, no
// jitter and five units of roaming and range distance.
func DefaultParams() Params {
	return Params{
		AcceptRemainDistance: 0.1,
		SelfDistance:         5,
		RangeDistance:        5,
	}
}

// Validate reports every field outside its documented range.
func (p Params) Validate() error {
	var errs []error
	check := func(name string, value float64) {
		if math.IsNaN(value) || value < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, value))
		}
	}
	check("acceptRemainDistance", p.AcceptRemainDistance)
	check("minOffDistance", p.MinOffDistance)
	check("maxOffDistance", p.MaxOffDistance)
	check("selfDistance", p.SelfDistance)
	check("rangeDistance", p.RangeDistance)
	check("adjustRangeDistance", p.AdjustRangeDistance)
	if p.MinOffDistance > p.MaxOffDistance {
		errs = append(errs, fmt.Errorf("minOffDistance %v exceeds maxOffDistance %v", p.MinOffDistance, p.MaxOffDistance))
	}
	return errors.Join(errs...)
}

// Normalized clamps negative fields to zero and raises MaxOffDistance to
// MinOffDistance when the bounds are inverted.
func (p Params) Normalized() Params {
	n := p
	n.AcceptRemainDistance = nonNegative(n.AcceptRemainDistance)
	n.MinOffDistance = nonNegative(n.MinOffDistance)
	n.MaxOffDistance = nonNegative(n.MaxOffDistance)
	n.SelfDistance = nonNegative(n.SelfDistance)
	n.RangeDistance = nonNegative(n.RangeDistance)
	n.AdjustRangeDistance = nonNegative(n.AdjustRangeDistance)
	if n.MaxOffDistance < n.MinOffDistance {
		n.MaxOffDistance = n.MinOffDistance
	}
	return n
}

// MaxDistance is the farthest a destination can land from its reference
// point under walkType.
func (p Params) MaxDistance(walkType WalkType) float64 {
	n := p.Normalized()
	if walkType.RequiresTarget() {
		return n.RangeDistance + n.AdjustRangeDistance + n.MaxOffDistance
	}
	return n.SelfDistance + n.MaxOffDistance
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
