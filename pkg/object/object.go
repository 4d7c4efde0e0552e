// pkg/object/object.go
// Package object defines the two interfaces the Slim-tree core consumes
// from its caller: the stored value itself, and the metric distance
// function that orders it. The tree never inspects an object's fields;
// it only serialises, clones, compares, and measures it through these
// contracts.
package object

// Object is an opaque, application-supplied value the tree stores. It
// must serialise to a byte slice of exactly SerializedSize() length, be
// cloneable, and support equality; nothing else about its structure is
// visible to the tree.
type Object interface {
	SerializedSize() int
	Serialize() []byte
	Unserialize(data []byte) error
	Clone() Object
	IsEqual(other Object) bool
}

// Distance is a pure function d(a, b) satisfying the metric axioms
// (non-negativity, symmetry, identity of indiscernibles, triangle
// inequality). Implementations that are not metric make pruning
// silently incorrect; the tree does not and cannot verify this.
type Distance interface {
	Evaluate(a, b Object) float64
	Accept(a, b Object) bool
	Count() uint64
	ResetStatistics()
}
