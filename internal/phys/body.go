package phys

// ShapeFilter controls which pairs of shapes may collide. Shapes sharing a
// nonzero group never collide. Otherwise both masks must admit the other
// side's categories.
type ShapeFilter struct {
	Group      uint
	Categories uint
	Mask       uint
}

const AllCategories = ^uint(0)

func DefaultFilter() ShapeFilter {
	return ShapeFilter{Categories: AllCategories, Mask: AllCategories}
}

func (f ShapeFilter) Rejects(o ShapeFilter) bool {
	if f.Group != 0 && f.Group == o.Group {
		return true
	}
	return f.Mask&o.Categories == 0 || o.Mask&f.Categories == 0
}

// MomentForBox returns the moment of inertia of a solid box about its center.
func MomentForBox(mass, width, height float64) float64 {
	return mass * (width*width + height*height) / 12.0
}

// Body is a dynamic rigid box.
type Body struct {
	Position        Vec
	Velocity        Vec
	Angle           float64
	AngularVelocity float64

	Width  float64
	Height float64

	Mass       float64
	Friction   float64
	Elasticity float64
	Filter     ShapeFilter

	invMass    float64
	invInertia float64

	force  Vec
	torque float64
}

// NewBoxBody creates a dynamic box body. A zero mass produces a static body
// with zero inverse mass and inertia.
func NewBoxBody(mass, width, height float64, position Vec) *Body {
	b := &Body{
		Position:   position,
		Width:      width,
		Height:     height,
		Mass:       mass,
		Friction:   0.5,
		Elasticity: 0.0,
		Filter:     DefaultFilter(),
	}
	if mass > 0 {
		b.invMass = 1.0 / mass
		inertia := MomentForBox(mass, width, height)
		if inertia > 0 {
			b.invInertia = 1.0 / inertia
		}
	}
	return b
}

func (b *Body) Static() bool {
	return b.invMass == 0
}

func (b *Body) ApplyForce(f Vec) {
	b.force = b.force.Add(f)
}

func (b *Body) ApplyTorque(t float64) {
	b.torque += t
}

func (b *Body) applyImpulse(impulse, r Vec) {
	b.Velocity = b.Velocity.Add(impulse.Scale(b.invMass))
	b.AngularVelocity += r.Cross(impulse) * b.invInertia
}

// LocalToWorld transforms a body-local point into world space.
func (b *Body) LocalToWorld(local Vec) Vec {
	return b.Position.Add(local.Rotate(b.Angle))
}

// VelocityAt returns the velocity of the world-space point p on the body.
func (b *Body) VelocityAt(p Vec) Vec {
	return b.Velocity.Add(CrossScalar(b.AngularVelocity, p.Sub(b.Position)))
}

// Corners returns the four world-space corners of the box.
func (b *Body) Corners() [4]Vec {
	hw, hh := b.Width/2, b.Height/2
	return [4]Vec{
		b.LocalToWorld(Vec{X: -hw, Y: -hh}),
		b.LocalToWorld(Vec{X: hw, Y: -hh}),
		b.LocalToWorld(Vec{X: hw, Y: hh}),
		b.LocalToWorld(Vec{X: -hw, Y: hh}),
	}
}

// Segment is a static one-sided collision surface. Its normal points away
// from the walkable side, opposite to gravity for a floor.
type Segment struct {
	A, B       Vec
	Friction   float64
	Elasticity float64
	Filter     ShapeFilter

	normal Vec
}

// NewSegment creates a static segment. The collision normal is the
// perpendicular with negative y, so a horizontal segment acts as a floor in
// the y-down world.
func NewSegment(a, b Vec) *Segment {
	n := b.Sub(a).Perp().Normalize()
	if n.Y > 0 {
		n = n.Scale(-1)
	}
	return &Segment{
		A:        a,
		B:        b,
		Friction: 0.5,
		Filter:   DefaultFilter(),
		normal:   n,
	}
}

func (s *Segment) Normal() Vec {
	return s.normal
}
