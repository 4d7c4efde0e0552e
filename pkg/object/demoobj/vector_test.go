// pkg/object/demoobj/vector_test.go
package demoobj

import (
	"math"
	"testing"
)

func TestVectorSerializeRoundTrip(t *testing.T) {
	v := NewVector([]float64{1.5, -2.25, 3.0})
	data := v.Serialize()
	if len(data) != v.SerializedSize() {
		t.Fatalf("got %d bytes, want %d", len(data), v.SerializedSize())
	}

	got := &Vector{}
	if err := got.Unserialize(data); err != nil {
		t.Fatalf("Unserialize: %v", err)
	}
	if !got.IsEqual(v) {
		t.Fatalf("got %v, want %v", got.Data, v.Data)
	}
}

func TestVectorClone(t *testing.T) {
	v := NewVector([]float64{1, 2, 3})
	c := v.Clone()
	if !c.IsEqual(v) {
		t.Fatal("clone not equal to original")
	}
	v.Data[0] = 99
	if c.IsEqual(v) {
		t.Fatal("clone shares backing storage with original")
	}
}

func TestEuclideanDistanceIsMetric(t *testing.T) {
	a := NewVector([]float64{0, 0})
	b := NewVector([]float64{3, 4})
	if d := Euclidean(a, b); d != 5 {
		t.Fatalf("got %v, want 5", d)
	}
	if Euclidean(a, a) != 0 {
		t.Fatal("distance to self must be zero")
	}
	if Euclidean(a, b) != Euclidean(b, a) {
		t.Fatal("distance must be symmetric")
	}

	c := NewVector([]float64{6, 8})
	if Euclidean(a, c) > Euclidean(a, b)+Euclidean(b, c)+1e-9 {
		t.Fatal("triangle inequality violated")
	}
}

func TestManhattanDistance(t *testing.T) {
	a := NewVector([]float64{0, 0})
	b := NewVector([]float64{3, -4})
	if d := Manhattan(a, b); d != 7 {
		t.Fatalf("got %v, want 7", d)
	}
}

func TestUnserializeRejectsTruncatedData(t *testing.T) {
	v := &Vector{}
	if err := v.Unserialize([]byte{1, 2}); err == nil {
		t.Fatal("expected error on a body shorter than one component")
	}
	if err := v.Unserialize([]byte{2, 0, 0, 0, 0, 0}); err == nil {
		t.Fatal("expected error on truncated body")
	}
}

func TestEuclideanDistanceNaNFree(t *testing.T) {
	a := NewVector([]float64{1, 2, 3})
	b := NewVector([]float64{1, 2, 3})
	if d := Euclidean(a, b); math.IsNaN(d) || d != 0 {
		t.Fatalf("identical vectors should have distance 0, got %v", d)
	}
}
