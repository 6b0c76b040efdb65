package tensor

import "fmt"

// Shape holds the dimensions of a tensor, outermost first. The encoder
// works almost exclusively with rank-3 (batch, time, feature) and
// rank-4 (batch, heads, time, time) shapes.
type Shape []int

// NumElements returns the product of all dimensions. An empty shape
// describes a scalar and counts as one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate returns an error when any dimension is non-positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides returns row-major strides: stride[i] is the flat-index
// step between neighbors along dimension i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes aligns two shapes from the right under NumPy rules:
// paired dimensions must match or one of them must be 1, and a shorter
// shape is padded with leading 1s. It returns the combined shape, a
// flag reporting whether any dimension actually stretches, and an
// error for incompatible pairs.
//
//	(3, 1) x (3, 5) -> (3, 5), stretched
//	(5)    x (3, 5) -> (3, 5), stretched
//	(3, 5) x (3, 5) -> (3, 5), exact
//	(3, 4) x (3, 5) -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	stretched := false

	for i := 1; i <= rank; i++ {
		aDim, bDim := 1, 1
		if i <= len(a) {
			aDim = a[len(a)-i]
		}
		if i <= len(b) {
			bDim = b[len(b)-i]
		}

		switch {
		case aDim == bDim:
			out[rank-i] = aDim
		case aDim == 1:
			out[rank-i] = bDim
			stretched = true
		case bDim == 1:
			out[rank-i] = aDim
			stretched = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: dimension %d is %d vs %d",
				a, b, rank-i, aDim, bDim)
		}
	}
	return out, stretched, nil
}
