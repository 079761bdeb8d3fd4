package phys

// PinJoint keeps two body-local anchor points at a fixed distance, the
// distance measured when the joint is created.
type PinJoint struct {
	A, B             *Body
	AnchorA, AnchorB Vec

	restLength float64
}

func NewPinJoint(a, b *Body, anchorA, anchorB Vec) *PinJoint {
	j := &PinJoint{A: a, B: b, AnchorA: anchorA, AnchorB: anchorB}
	j.restLength = b.LocalToWorld(anchorB).Sub(a.LocalToWorld(anchorA)).Length()
	return j
}

func (j *PinJoint) RestLength() float64 {
	return j.restLength
}

// Distance returns the current anchor separation.
func (j *PinJoint) Distance() float64 {
	return j.B.LocalToWorld(j.AnchorB).Sub(j.A.LocalToWorld(j.AnchorA)).Length()
}

const jointBeta = 0.2

func (j *PinJoint) solve(invDt float64) {
	pa := j.A.LocalToWorld(j.AnchorA)
	pb := j.B.LocalToWorld(j.AnchorB)
	d := pb.Sub(pa)
	dist := d.Length()
	if dist == 0 {
		return
	}
	n := d.Scale(1 / dist)

	ra := pa.Sub(j.A.Position)
	rb := pb.Sub(j.B.Position)

	rv := j.B.VelocityAt(pb).Sub(j.A.VelocityAt(pa))
	vn := rv.Dot(n)

	raCrossN := ra.Cross(n)
	rbCrossN := rb.Cross(n)
	k := j.A.invMass + j.B.invMass +
		j.A.invInertia*raCrossN*raCrossN +
		j.B.invInertia*rbCrossN*rbCrossN
	if k == 0 {
		return
	}

	bias := jointBeta * invDt * (dist - j.restLength)
	lambda := -(vn + bias) / k

	impulse := n.Scale(lambda)
	j.A.applyImpulse(impulse.Scale(-1), ra)
	j.B.applyImpulse(impulse, rb)
}

// Motor drives the relative angular velocity of body B with respect to body
// A toward Rate, applying at most MaxForce torque.
type Motor struct {
	A, B     *Body
	Rate     float64
	MaxForce float64

	accumulated float64
}

func NewMotor(a, b *Body, rate float64) *Motor {
	return &Motor{A: a, B: b, Rate: rate, MaxForce: 1e9}
}

func (m *Motor) solve(dt float64) {
	k := m.A.invInertia + m.B.invInertia
	if k == 0 {
		return
	}

	cdot := m.B.AngularVelocity - m.A.AngularVelocity - m.Rate
	impulse := -cdot / k

	maxImpulse := m.MaxForce * dt
	old := m.accumulated
	m.accumulated += impulse
	if m.accumulated > maxImpulse {
		m.accumulated = maxImpulse
	} else if m.accumulated < -maxImpulse {
		m.accumulated = -maxImpulse
	}
	impulse = m.accumulated - old

	m.A.AngularVelocity -= impulse * m.A.invInertia
	m.B.AngularVelocity += impulse * m.B.invInertia
}

func (m *Motor) resetAccumulator() {
	m.accumulated = 0
}
