package tensor

import "fmt"

// Tensor is a typed view over a RawTensor bound to a backend.
// T is the element type, B the backend performing the computation.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New creates a zeroed tensor with the given shape.
func New[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	var dummy T
	raw := NewRaw(shape, inferDataType(dummy), backend.Device())
	return &Tensor[T, B]{raw: raw, backend: backend}
}

// FromRaw wraps an existing RawTensor. The element type must match.
func FromRaw[T DType, B Backend](raw *RawTensor, backend B) *Tensor[T, B] {
	var dummy T
	if raw.DType() != inferDataType(dummy) {
		panic(fmt.Sprintf("tensor: cannot wrap %s raw tensor as %s", raw.DType(), inferDataType(dummy)))
	}
	return &Tensor[T, B]{raw: raw, backend: backend}
}

// FromSlice creates a tensor from a flat slice of values.
func FromSlice[T DType, B Backend](data []T, shape Shape, backend B) (*Tensor[T, B], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	t := New[T](shape, backend)
	copy(t.Data(), data)
	return t, nil
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the backend the tensor is bound to.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// Dim returns the size of the given dimension. Negative values count
// from the end.
func (t *Tensor[T, B]) Dim(i int) int {
	shape := t.raw.Shape()
	if i < 0 {
		i += len(shape)
	}
	if i < 0 || i >= len(shape) {
		panic(fmt.Sprintf("tensor: dim %d out of range for shape %v", i, shape))
	}
	return shape[i]
}

// Rank returns the number of dimensions.
func (t *Tensor[T, B]) Rank() int { return len(t.raw.Shape()) }

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Data returns the tensor's elements as a typed slice sharing the
// underlying buffer. Writes are visible to subsequent operations.
func (t *Tensor[T, B]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.Float32s()).([]T)
	case bool:
		return any(t.raw.Bools()).([]T)
	default:
		panic("unsupported type")
	}
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor[T, B]) At(indices ...int) T {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("tensor: expected %d indices for shape %v, got %d", len(shape), shape, len(indices)))
	}
	strides := shape.ComputeStrides()
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dim %d (size %d)", idx, i, shape[i]))
		}
		flat += idx * strides[i]
	}
	return t.Data()[flat]
}

// SetAt writes the element at the given multi-dimensional index.
func (t *Tensor[T, B]) SetAt(value T, indices ...int) {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("tensor: expected %d indices for shape %v, got %d", len(shape), shape, len(indices)))
	}
	strides := shape.ComputeStrides()
	flat := 0
	for i, idx := range indices {
		flat += idx * strides[i]
	}
	t.Data()[flat] = value
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// String returns a short description of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor(%s, shape=%v, device=%s)", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
