package phys

import (
	"math"
	"testing"
)

const dt = 1.0 / 60.0

func newFloorSpace() (*Space, *Segment) {
	s := NewSpace()
	s.Gravity = Vec{X: 0, Y: 1000}
	floor := NewSegment(Vec{X: -1000, Y: 500}, Vec{X: 1000, Y: 500})
	floor.Friction = 1.0
	s.AddSegment(floor)
	return s, floor
}

func TestBoxSettlesOnFloor(t *testing.T) {
	s, _ := newFloorSpace()
	b := NewBoxBody(5, 40, 60, Vec{X: 0, Y: 300})
	b.Friction = 1.0
	s.AddBody(b)

	for i := 0; i < 600; i++ {
		s.Step(dt)
	}

	// Bottom face should rest on the floor: center at y = 500 - 30.
	wantY := 500.0 - 30.0
	if math.Abs(b.Position.Y-wantY) > 1.0 {
		t.Fatalf("box did not settle: y=%.3f want=%.3f", b.Position.Y, wantY)
	}
	if math.Abs(b.Velocity.Y) > 5.0 {
		t.Fatalf("box still moving: vy=%.3f", b.Velocity.Y)
	}
}

func TestBoxFallsThroughWhenFilterRejects(t *testing.T) {
	s, floor := newFloorSpace()
	floor.Filter = ShapeFilter{Categories: 1 << 0, Mask: 1 << 5}

	b := NewBoxBody(1, 10, 10, Vec{X: 0, Y: 300})
	b.Filter = ShapeFilter{Categories: 1 << 1, Mask: 1 << 0}
	s.AddBody(b)

	for i := 0; i < 120; i++ {
		s.Step(dt)
	}
	if b.Position.Y < 600 {
		t.Fatalf("box should have fallen through the floor, y=%.3f", b.Position.Y)
	}
}

func TestSameGroupNeverCollides(t *testing.T) {
	a := ShapeFilter{Group: 3, Categories: 1, Mask: AllCategories}
	b := ShapeFilter{Group: 3, Categories: 2, Mask: AllCategories}
	if !a.Rejects(b) {
		t.Fatal("shapes sharing a nonzero group must not collide")
	}
	c := ShapeFilter{Group: 4, Categories: 1, Mask: AllCategories}
	if a.Rejects(c) {
		t.Fatal("different groups with admitting masks should collide")
	}
}

func TestPinJointHoldsDistance(t *testing.T) {
	s := NewSpace()
	s.Gravity = Vec{X: 0, Y: 1000}

	anchor := NewBoxBody(0, 10, 10, Vec{X: 0, Y: 0})
	bob := NewBoxBody(1, 10, 10, Vec{X: 0, Y: 50})
	s.AddBody(anchor)
	s.AddBody(bob)

	j := NewPinJoint(anchor, bob, Vec{}, Vec{})
	s.AddJoint(j)

	rest := j.RestLength()
	for i := 0; i < 300; i++ {
		s.Step(dt)
		if d := j.Distance(); math.Abs(d-rest) > 2.0 {
			t.Fatalf("joint drifted at step %d: distance=%.3f rest=%.3f", i, d, rest)
		}
	}
}

func TestMotorDrivesRelativeAngularVelocity(t *testing.T) {
	s := NewSpace()

	a := NewBoxBody(0, 10, 10, Vec{})
	b := NewBoxBody(1, 10, 10, Vec{X: 0, Y: 30})
	s.AddBody(a)
	s.AddBody(b)

	m := NewMotor(a, b, 5.0)
	s.AddMotor(m)

	s.Step(dt)
	if math.Abs(b.AngularVelocity-5.0) > 1e-9 {
		t.Fatalf("motor missed rate: got=%.6f want=5", b.AngularVelocity)
	}
}

func TestMotorTorqueLimit(t *testing.T) {
	s := NewSpace()

	a := NewBoxBody(0, 10, 10, Vec{})
	b := NewBoxBody(1, 10, 10, Vec{X: 0, Y: 30})
	s.AddBody(a)
	s.AddBody(b)

	m := NewMotor(a, b, 100.0)
	m.MaxForce = 1.0
	s.AddMotor(m)

	s.Step(dt)

	// Impulse is capped at MaxForce*dt, so the angular velocity gained in one
	// step cannot exceed MaxForce*dt*invInertia.
	inertia := MomentForBox(1, 10, 10)
	limit := 1.0 * dt / inertia
	if b.AngularVelocity > limit+1e-9 {
		t.Fatalf("motor exceeded torque limit: got=%.6f limit=%.6f", b.AngularVelocity, limit)
	}
}

func TestStepIsDeterministic(t *testing.T) {
	build := func() (*Space, *Body) {
		s, _ := newFloorSpace()
		b := NewBoxBody(2, 20, 30, Vec{X: 5, Y: 100})
		b.Angle = 0.3
		b.Friction = 0.8
		s.AddBody(b)
		return s, b
	}

	s1, b1 := build()
	s2, b2 := build()
	for i := 0; i < 300; i++ {
		s1.Step(dt)
		s2.Step(dt)
	}
	if b1.Position != b2.Position || b1.Angle != b2.Angle {
		t.Fatalf("identical spaces diverged: %+v vs %+v", b1.Position, b2.Position)
	}
}

func TestSegmentNormalPointsUp(t *testing.T) {
	seg := NewSegment(Vec{X: 0, Y: 100}, Vec{X: 50, Y: 100})
	if n := seg.Normal(); n.Y >= 0 {
		t.Fatalf("floor normal must have negative y, got %+v", n)
	}
}

func TestMomentForBox(t *testing.T) {
	got := MomentForBox(12, 2, 4)
	want := 12.0 * (4.0 + 16.0) / 12.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("moment: got=%v want=%v", got, want)
	}
}
