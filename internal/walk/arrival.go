package walk

import "math"

// Arrived reports whether p has a complete path whose remaining distance is
// within tolerance. A disabled planner is never queried further.
func Arrived(p Planner, tolerance float64) bool {
	if p == nil || !p.Enabled() {
		return false
	}
	dist := p.RemainingDistance()
	if math.IsNaN(dist) {
		return false
	}
	return p.PathStatus() == PathComplete && dist <= tolerance
}
