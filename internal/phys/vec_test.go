package phys

import (
	"math"
	"testing"
)

func TestVecRotate(t *testing.T) {
	v := Vec{X: 1, Y: 0}
	r := v.Rotate(math.Pi / 2)
	if math.Abs(r.X) > 1e-12 || math.Abs(r.Y-1) > 1e-12 {
		t.Fatalf("rotate: got %+v", r)
	}
}

func TestVecNormalize(t *testing.T) {
	v := Vec{X: 3, Y: 4}
	n := v.Normalize()
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Fatalf("normalize length: got %v", n.Length())
	}
	if zero := (Vec{}).Normalize(); zero != (Vec{}) {
		t.Fatalf("normalizing zero vector: got %+v", zero)
	}
}

func TestVecCross(t *testing.T) {
	a := Vec{X: 1, Y: 2}
	b := Vec{X: 3, Y: 4}
	if got := a.Cross(b); got != 1*4-2*3 {
		t.Fatalf("cross: got %v", got)
	}
}
