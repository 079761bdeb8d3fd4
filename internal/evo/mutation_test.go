package evo

import (
	"math/rand"
	"testing"

	"evowalk/internal/brain"
)

func TestMaskedGaussianMutationPreservesParent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	parent, err := brain.New(30, 4, 4)
	if err != nil {
		t.Fatalf("new brain: %v", err)
	}
	parent.Randomize(rng)
	before := parent.Clone()

	op := MaskedGaussianMutation{Rate: 1, Scale: 0.5}
	child, err := op.Apply(rng, parent)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if child == parent {
		t.Fatal("child aliases parent")
	}

	// Parent must be untouched.
	for li := range parent.Layers {
		for i := range parent.Layers[li].Weights {
			for j := range parent.Layers[li].Weights[i] {
				if parent.Layers[li].Weights[i][j] != before.Layers[li].Weights[i][j] {
					t.Fatal("mutation modified the parent")
				}
			}
		}
	}

	// Full-rate mutation must change the child.
	changed := false
	for li := range child.Layers {
		for i := range child.Layers[li].Weights {
			for j := range child.Layers[li].Weights[i] {
				if child.Layers[li].Weights[i][j] != parent.Layers[li].Weights[i][j] {
					changed = true
				}
			}
		}
	}
	if !changed {
		t.Fatal("full-rate mutation produced an identical child")
	}
}

func TestMaskedGaussianMutationValidation(t *testing.T) {
	parent, err := brain.New(30, 4, 4)
	if err != nil {
		t.Fatalf("new brain: %v", err)
	}
	rng := rand.New(rand.NewSource(1))

	if _, err := (MaskedGaussianMutation{Rate: -0.1, Scale: 0.5}).Apply(rng, parent); err == nil {
		t.Fatal("expected error for negative rate")
	}
	if _, err := (MaskedGaussianMutation{Rate: 1.5, Scale: 0.5}).Apply(rng, parent); err == nil {
		t.Fatal("expected error for rate above one")
	}
	if _, err := (MaskedGaussianMutation{Rate: 0.5, Scale: -1}).Apply(rng, parent); err == nil {
		t.Fatal("expected error for negative scale")
	}
	if _, err := (MaskedGaussianMutation{Rate: 0.5, Scale: 0.5}).Apply(nil, parent); err == nil {
		t.Fatal("expected error for nil rng")
	}
}
