package world

import "math"

// Vec3 is a point or direction in world space. Y is the vertical axis; agents
// walk on the X/Z plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the euclidean magnitude of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	mag := v.Length()
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{X: v.X * inv, Y: v.Y * inv, Z: v.Z * inv}
}

// Horizontal drops the vertical component.
func (v Vec3) Horizontal() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// HorizontalLength is the magnitude of v projected onto the X/Z plane.
func (v Vec3) HorizontalLength() float64 {
	return math.Hypot(v.X, v.Z)
}

// Distance returns the straight-line distance between a and b.
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Length()
}

// HorizontalDistance returns the distance between a and b ignoring elevation.
func HorizontalDistance(a, b Vec3) float64 {
	return b.Sub(a).HorizontalLength()
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
