package brain

import (
	"math"
	"math/rand"
	"testing"
)

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	n, err := New(30, 8, 4)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	n.Randomize(rand.New(rand.NewSource(1)))
	return n
}

func TestNewRejectsInvalidShape(t *testing.T) {
	if _, err := New(0, 8, 4); err == nil {
		t.Fatal("expected error for zero input size")
	}
	if _, err := New(30, -1, 4); err == nil {
		t.Fatal("expected error for negative hidden size")
	}
}

func TestForwardOutputBounds(t *testing.T) {
	n := newTestNetwork(t)
	inputs := make([]float64, 30)
	for i := range inputs {
		inputs[i] = float64(i) / 10.0
	}

	outputs, err := n.Forward(inputs)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(outputs) != 4 {
		t.Fatalf("output width: got=%d want=4", len(outputs))
	}
	for i, out := range outputs {
		if out < -1 || out > 1 {
			t.Fatalf("output %d outside tanh range: %v", i, out)
		}
	}
}

func TestForwardRejectsWrongInputWidth(t *testing.T) {
	n := newTestNetwork(t)
	if _, err := n.Forward(make([]float64, 29)); err == nil {
		t.Fatal("expected input size mismatch error")
	}
}

func TestMutateZeroRateIsIdentity(t *testing.T) {
	n := newTestNetwork(t)
	clone := n.Clone()
	n.Mutate(rand.New(rand.NewSource(2)), 0, 0.5)
	if !networksEqual(n, clone) {
		t.Fatal("zero-rate mutation changed parameters")
	}
}

func TestMutateFullRateChangesParameters(t *testing.T) {
	n := newTestNetwork(t)
	clone := n.Clone()
	n.Mutate(rand.New(rand.NewSource(3)), 1, 0.5)
	if networksEqual(n, clone) {
		t.Fatal("full-rate mutation left parameters untouched")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	n := newTestNetwork(t)
	clone := n.Clone()
	clone.Layers[0].Weights[0][0] += 10
	clone.Layers[0].Biases[0] += 10
	if n.Layers[0].Weights[0][0] == clone.Layers[0].Weights[0][0] {
		t.Fatal("clone shares weight storage with original")
	}
	if n.Layers[0].Biases[0] == clone.Layers[0].Biases[0] {
		t.Fatal("clone shares bias storage with original")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	n := newTestNetwork(t)
	record := n.ToRecord("b1", 7, 0.001, 42.5, 1, 1)

	restored, err := FromRecord(record)
	if err != nil {
		t.Fatalf("from record: %v", err)
	}
	if !networksEqual(n, restored) {
		t.Fatal("round trip changed parameters")
	}

	inputs := make([]float64, 30)
	inputs[0] = 0.5
	a, err := n.Forward(inputs)
	if err != nil {
		t.Fatalf("forward original: %v", err)
	}
	b, err := restored.Forward(inputs)
	if err != nil {
		t.Fatalf("forward restored: %v", err)
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-15 {
			t.Fatalf("outputs differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFromRecordRejectsBadShapes(t *testing.T) {
	n := newTestNetwork(t)
	record := n.ToRecord("b1", 1, 0.001, 0, 1, 1)

	truncated := record
	truncated.Layers = nil
	if _, err := FromRecord(truncated); err == nil {
		t.Fatal("expected error for record without layers")
	}

	misshapen := n.ToRecord("b2", 1, 0.001, 0, 1, 1)
	misshapen.Layers[1].Weights[0] = misshapen.Layers[1].Weights[0][:3]
	if _, err := FromRecord(misshapen); err == nil {
		t.Fatal("expected error for row width mismatch")
	}

	wrongOut := n.ToRecord("b3", 1, 0.001, 0, 1, 1)
	wrongOut.OutputSize = 9
	if _, err := FromRecord(wrongOut); err == nil {
		t.Fatal("expected error for output size mismatch")
	}
}

func networksEqual(a, b *Network) bool {
	if len(a.Layers) != len(b.Layers) {
		return false
	}
	for li := range a.Layers {
		la, lb := a.Layers[li], b.Layers[li]
		if la.Activation != lb.Activation || len(la.Weights) != len(lb.Weights) {
			return false
		}
		for i := range la.Weights {
			for j := range la.Weights[i] {
				if la.Weights[i][j] != lb.Weights[i][j] {
					return false
				}
			}
			if la.Biases[i] != lb.Biases[i] {
				return false
			}
		}
	}
	return true
}
