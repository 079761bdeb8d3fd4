package evo

import (
	"fmt"
	"math/rand"

	"evowalk/internal/brain"
)

// Operator transforms a parent brain into a child brain. Implementations
// must not modify the parent.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, parent *brain.Network) (*brain.Network, error)
}

// MaskedGaussianMutation perturbs each parameter with probability Rate by
// gaussian noise scaled by Scale.
type MaskedGaussianMutation struct {
	Rate  float64
	Scale float64
}

func (MaskedGaussianMutation) Name() string {
	return "masked_gaussian"
}

func (o MaskedGaussianMutation) Apply(rng *rand.Rand, parent *brain.Network) (*brain.Network, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if o.Rate < 0 || o.Rate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1], got %v", o.Rate)
	}
	if o.Scale < 0 {
		return nil, fmt.Errorf("mutation scale must be >= 0, got %v", o.Scale)
	}

	child := parent.Clone()
	child.Mutate(rng, o.Rate, o.Scale)
	return child, nil
}
