package walker

import (
	"context"
	"fmt"
	"math"

	"evowalk/internal/brain"
	"evowalk/internal/config"
	"evowalk/internal/phys"
)

// Collision categories. Walker shapes only collide with the ground, never
// with each other, which is what lets a whole batch share one space.
const (
	GroundCategory uint = 1 << 0
	WalkerCategory uint = 1 << 1
)

const (
	// Start pose of the torso; every walker spawns here.
	StartX = 100.0
	StartY = 300.0

	// Sensor normalization, matching the world the controllers evolved in.
	velocityScale        = 500.0
	angularVelocityScale = 10.0

	// 6 sensed features per body part.
	FeaturesPerBody = 6
)

type bodyPart struct {
	body   *phys.Body
	offset phys.Vec // spawn offset from the torso
}

// Walker is one simulated agent: a torso and four leg segments driven by
// motors under control of a small neural network.
type Walker struct {
	id    int
	cfg   config.PhysicsConfig
	space *phys.Space
	brain *brain.Network

	parts  []bodyPart
	joints []*phys.PinJoint
	motors []*phys.Motor

	startX  float64
	fitness float64
}

// InputSize returns the controller input width for the standard body plan.
func InputSize() int {
	return 5 * FeaturesPerBody
}

// OutputSize returns the controller output width (one per motor).
func OutputSize() int {
	return 4
}

// New builds a walker in the given space. The brain must match
// InputSize/OutputSize.
func New(space *phys.Space, cfg config.PhysicsConfig, net *brain.Network, id int) (*Walker, error) {
	if net == nil {
		return nil, fmt.Errorf("walker %d: brain is required", id)
	}
	if net.InputSize != InputSize() || net.OutputSize != OutputSize() {
		return nil, fmt.Errorf("walker %d: brain shape %dx%d, want %dx%d",
			id, net.InputSize, net.OutputSize, InputSize(), OutputSize())
	}

	w := &Walker{
		id:     id,
		cfg:    cfg,
		space:  space,
		brain:  net,
		startX: StartX,
	}
	w.buildBody()
	return w, nil
}

func (w *Walker) buildBody() {
	filter := phys.ShapeFilter{
		Group:      uint(w.id + 1),
		Categories: WalkerCategory,
		Mask:       GroundCategory,
	}

	add := func(mass, width, height float64, offset phys.Vec) *phys.Body {
		b := phys.NewBoxBody(mass, width, height, phys.Vec{X: StartX + offset.X, Y: StartY + offset.Y})
		b.Friction = 1.0
		b.Elasticity = 0.0
		b.Filter = filter
		w.space.AddBody(b)
		w.parts = append(w.parts, bodyPart{body: b, offset: offset})
		return b
	}

	torso := add(5, 40, 60, phys.Vec{})
	lUpper := add(2, 15, 40, phys.Vec{X: -15, Y: 50})
	lLower := add(1, 10, 30, phys.Vec{X: -15, Y: 85})
	rUpper := add(2, 15, 40, phys.Vec{X: 15, Y: 50})
	rLower := add(1, 10, 30, phys.Vec{X: 15, Y: 85})

	joint := func(a, b *phys.Body, anchorA, anchorB phys.Vec) {
		j := phys.NewPinJoint(a, b, anchorA, anchorB)
		w.space.AddJoint(j)
		w.joints = append(w.joints, j)

		m := phys.NewMotor(a, b, 0)
		m.MaxForce = w.cfg.MaxTorque
		w.space.AddMotor(m)
		w.motors = append(w.motors, m)
	}

	// Hips then knees, left then right. Motor order defines actuator order.
	joint(torso, lUpper, phys.Vec{X: -15, Y: 30}, phys.Vec{X: 0, Y: -20})
	joint(lUpper, lLower, phys.Vec{X: 0, Y: 20}, phys.Vec{X: 0, Y: -15})
	joint(torso, rUpper, phys.Vec{X: 15, Y: 30}, phys.Vec{X: 0, Y: -20})
	joint(rUpper, rLower, phys.Vec{X: 0, Y: 20}, phys.Vec{X: 0, Y: -15})
}

func (w *Walker) ID() int {
	return w.id
}

func (w *Walker) Brain() *brain.Network {
	return w.brain
}

// SetBrain swaps the controller without touching the body.
func (w *Walker) SetBrain(net *brain.Network) error {
	if net.InputSize != InputSize() || net.OutputSize != OutputSize() {
		return fmt.Errorf("walker %d: brain shape %dx%d, want %dx%d",
			w.id, net.InputSize, net.OutputSize, InputSize(), OutputSize())
	}
	w.brain = net
	return nil
}

// Sense returns the normalized state vector: position, velocity, angle, and
// angular velocity for each body part.
func (w *Walker) Sense() []float64 {
	state := make([]float64, 0, len(w.parts)*FeaturesPerBody)
	for _, part := range w.parts {
		b := part.body
		state = append(state,
			b.Position.X/w.cfg.WorldWidth,
			b.Position.Y/w.cfg.WorldHeight,
			b.Velocity.X/velocityScale,
			b.Velocity.Y/velocityScale,
			math.Mod(math.Mod(b.Angle, 2*math.Pi)+2*math.Pi, 2*math.Pi)/(2*math.Pi),
			b.AngularVelocity/angularVelocityScale,
		)
	}
	return state
}

// Act sets motor rates from controller outputs in [-1, 1].
func (w *Walker) Act(outputs []float64) error {
	if len(outputs) != len(w.motors) {
		return fmt.Errorf("walker %d: %d outputs for %d motors", w.id, len(outputs), len(w.motors))
	}
	for i, m := range w.motors {
		m.Rate = outputs[i] * w.cfg.MaxMotorVelocity
	}
	return nil
}

// Step runs one control tick: sense, infer, actuate, refresh fitness. The
// caller advances the space afterwards.
func (w *Walker) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	outputs, err := w.brain.Forward(w.Sense())
	if err != nil {
		return fmt.Errorf("walker %d: %w", w.id, err)
	}
	if err := w.Act(outputs); err != nil {
		return err
	}
	w.fitness = w.torso().Position.X - w.startX
	return nil
}

func (w *Walker) torso() *phys.Body {
	return w.parts[0].body
}

// Fitness is the horizontal distance the torso has covered this generation.
func (w *Walker) Fitness() float64 {
	return w.fitness
}

// Position returns the torso position.
func (w *Walker) Position() phys.Vec {
	return w.torso().Position
}

// Parts returns the world-space pose of every body part, torso first.
func (w *Walker) Parts() []PartState {
	out := make([]PartState, 0, len(w.parts))
	for _, part := range w.parts {
		b := part.body
		out = append(out, PartState{
			Position: b.Position,
			Angle:    b.Angle,
			Width:    b.Width,
			Height:   b.Height,
		})
	}
	return out
}

// PartState is a render-ready pose of one body part.
type PartState struct {
	Position phys.Vec
	Angle    float64
	Width    float64
	Height   float64
}

// Reset re-poses every body part at its spawn offset, zeroes motion, and
// clears fitness.
func (w *Walker) Reset() {
	for _, part := range w.parts {
		b := part.body
		b.Position = phys.Vec{X: StartX + part.offset.X, Y: StartY + part.offset.Y}
		b.Velocity = phys.Vec{}
		b.Angle = 0
		b.AngularVelocity = 0
	}
	for _, m := range w.motors {
		m.Rate = 0
	}
	w.startX = StartX
	w.fitness = 0
}

// Remove detaches the walker from its space.
func (w *Walker) Remove() {
	for _, m := range w.motors {
		w.space.RemoveMotor(m)
	}
	for _, j := range w.joints {
		w.space.RemoveJoint(j)
	}
	for _, part := range w.parts {
		w.space.RemoveBody(part.body)
	}
}

// NewSpace builds a space with the standard gravity and ground for the given
// physics settings.
func NewSpace(cfg config.PhysicsConfig) *phys.Space {
	space := phys.NewSpace()
	space.Gravity = phys.Vec{X: 0, Y: cfg.Gravity}

	ground := phys.NewSegment(
		phys.Vec{X: -1000, Y: cfg.GroundY()},
		phys.Vec{X: 10000, Y: cfg.GroundY()},
	)
	ground.Friction = 1.0
	ground.Elasticity = 0.0
	ground.Filter = phys.ShapeFilter{Categories: GroundCategory, Mask: phys.AllCategories}
	space.AddSegment(ground)
	return space
}
