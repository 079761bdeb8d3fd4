package phys

// Space owns all bodies, segments, joints, and motors and advances them with
// a fixed timestep. Solver order and entity iteration are deterministic:
// entities are processed in insertion order, so two spaces built the same
// way step identically.
type Space struct {
	Gravity    Vec
	Iterations int
	Damping    float64

	bodies   []*Body
	segments []*Segment
	joints   []*PinJoint
	motors   []*Motor

	contacts []contact
}

type contact struct {
	body        *Body
	segment     *Segment
	point       Vec
	penetration float64
	normalMass  float64
	tangentMass float64
	restitution float64
	friction    float64
	jnAcc       float64
	jtAcc       float64
}

func NewSpace() *Space {
	return &Space{
		Iterations: 10,
		Damping:    1.0,
	}
}

func (s *Space) AddBody(b *Body) {
	s.bodies = append(s.bodies, b)
}

func (s *Space) RemoveBody(b *Body) {
	for i, existing := range s.bodies {
		if existing == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			return
		}
	}
}

func (s *Space) AddSegment(seg *Segment) {
	s.segments = append(s.segments, seg)
}

func (s *Space) AddJoint(j *PinJoint) {
	s.joints = append(s.joints, j)
}

func (s *Space) RemoveJoint(j *PinJoint) {
	for i, existing := range s.joints {
		if existing == j {
			s.joints = append(s.joints[:i], s.joints[i+1:]...)
			return
		}
	}
}

func (s *Space) AddMotor(m *Motor) {
	s.motors = append(s.motors, m)
}

func (s *Space) RemoveMotor(m *Motor) {
	for i, existing := range s.motors {
		if existing == m {
			s.motors = append(s.motors[:i], s.motors[i+1:]...)
			return
		}
	}
}

func (s *Space) Bodies() []*Body {
	return s.bodies
}

// Step advances the simulation by dt seconds: integrate forces into
// velocities, solve motor/joint/contact velocity constraints iteratively,
// integrate positions, then correct residual penetration.
func (s *Space) Step(dt float64) {
	if dt <= 0 {
		return
	}
	invDt := 1 / dt

	for _, b := range s.bodies {
		if b.Static() {
			continue
		}
		b.Velocity = b.Velocity.Add(s.Gravity.Scale(dt)).Add(b.force.Scale(b.invMass * dt))
		b.AngularVelocity += b.torque * b.invInertia * dt
		if s.Damping != 1.0 {
			b.Velocity = b.Velocity.Scale(s.Damping)
			b.AngularVelocity *= s.Damping
		}
	}

	s.findContacts()
	for _, m := range s.motors {
		m.resetAccumulator()
	}

	for iter := 0; iter < s.Iterations; iter++ {
		for _, m := range s.motors {
			m.solve(dt)
		}
		for _, j := range s.joints {
			j.solve(invDt)
		}
		for i := range s.contacts {
			s.contacts[i].solve()
		}
	}

	for _, b := range s.bodies {
		if b.Static() {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.Angle += b.AngularVelocity * dt
		b.force = Vec{}
		b.torque = 0
	}

	s.correctPositions()
}

const (
	penetrationSlop    = 0.05
	positionCorrection = 0.4
	segmentSlack       = 1.0
)

func (s *Space) findContacts() {
	s.contacts = s.contacts[:0]
	for _, b := range s.bodies {
		if b.Static() {
			continue
		}
		for _, seg := range s.segments {
			if b.Filter.Rejects(seg.Filter) {
				continue
			}
			s.collideBoxSegment(b, seg)
		}
	}
}

func (s *Space) collideBoxSegment(b *Body, seg *Segment) {
	axis := seg.B.Sub(seg.A)
	axisLen := axis.Length()
	if axisLen == 0 {
		return
	}
	axisDir := axis.Scale(1 / axisLen)
	n := seg.normal

	for _, corner := range b.Corners() {
		along := corner.Sub(seg.A).Dot(axisDir)
		if along < -segmentSlack || along > axisLen+segmentSlack {
			continue
		}
		depth := -corner.Sub(seg.A).Dot(n)
		if depth <= 0 {
			continue
		}

		r := corner.Sub(b.Position)
		rCrossN := r.Cross(n)
		kn := b.invMass + b.invInertia*rCrossN*rCrossN
		t := n.Perp()
		rCrossT := r.Cross(t)
		kt := b.invMass + b.invInertia*rCrossT*rCrossT

		friction := b.Friction * seg.Friction
		restitution := b.Elasticity * seg.Elasticity
		s.contacts = append(s.contacts, contact{
			body:        b,
			segment:     seg,
			point:       corner,
			penetration: depth,
			normalMass:  kn,
			tangentMass: kt,
			restitution: restitution,
			friction:    friction,
		})
	}
}

func (c *contact) solve() {
	b := c.body
	n := c.segment.normal
	r := c.point.Sub(b.Position)

	v := b.VelocityAt(c.point)
	vn := v.Dot(n)

	if c.normalMass > 0 {
		jn := -(1 + c.restitution) * vn / c.normalMass
		old := c.jnAcc
		c.jnAcc += jn
		if c.jnAcc < 0 {
			c.jnAcc = 0
		}
		jn = c.jnAcc - old
		b.applyImpulse(n.Scale(jn), r)
	}

	t := n.Perp()
	v = b.VelocityAt(c.point)
	vt := v.Dot(t)
	if c.tangentMass > 0 {
		jt := -vt / c.tangentMass
		maxJt := c.friction * c.jnAcc
		old := c.jtAcc
		c.jtAcc += jt
		if c.jtAcc > maxJt {
			c.jtAcc = maxJt
		} else if c.jtAcc < -maxJt {
			c.jtAcc = -maxJt
		}
		jt = c.jtAcc - old
		b.applyImpulse(t.Scale(jt), r)
	}
}

func (s *Space) correctPositions() {
	for _, b := range s.bodies {
		if b.Static() {
			continue
		}
		for _, seg := range s.segments {
			if b.Filter.Rejects(seg.Filter) {
				continue
			}
			axis := seg.B.Sub(seg.A)
			axisLen := axis.Length()
			if axisLen == 0 {
				continue
			}
			axisDir := axis.Scale(1 / axisLen)

			deepest := 0.0
			for _, corner := range b.Corners() {
				along := corner.Sub(seg.A).Dot(axisDir)
				if along < -segmentSlack || along > axisLen+segmentSlack {
					continue
				}
				depth := -corner.Sub(seg.A).Dot(seg.normal)
				if depth > deepest {
					deepest = depth
				}
			}
			if deepest > penetrationSlop {
				shift := (deepest - penetrationSlop) * positionCorrection
				b.Position = b.Position.Add(seg.normal.Scale(shift))
			}
		}
	}
}
