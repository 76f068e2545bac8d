package sim

import "navwalk/internal/world"

// Body is a point agent on the walkable plane. It doubles as a walk target.
type Body struct {
	id       string
	position world.Vec3
	speed    float64
}

func NewBody(id string, position world.Vec3, speed float64) *Body {
	return &Body{id: id, position: position, speed: speed}
}

func (b *Body) ID() string { return b.id }

func (b *Body) Position() world.Vec3 { return b.position }

func (b *Body) SetPosition(p world.Vec3) { b.position = p }

func (b *Body) Speed() float64 { return b.speed }
