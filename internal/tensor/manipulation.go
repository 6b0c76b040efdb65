package tensor

import "fmt"

// Cat concatenates tensors along the given dimension. All inputs must
// share dtype and every dimension except dim.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("tensor: Cat requires at least one tensor")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.Raw()
	}
	backend := tensors[0].Backend()
	return &Tensor[T, B]{raw: backend.Cat(raws, dim), backend: backend}
}

// Chunk splits the tensor into equal parts along dim. The dimension
// size must be divisible by chunks.
func (t *Tensor[T, B]) Chunk(chunks, dim int) []*Tensor[T, B] {
	raws := t.backend.Chunk(t.raw, chunks, dim)
	out := make([]*Tensor[T, B], len(raws))
	for i, raw := range raws {
		out[i] = t.wrap(raw)
	}
	return out
}

// Unsqueeze inserts a dimension of size 1 at position dim.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Unsqueeze(t.raw, dim))
}

// Squeeze removes the dimension at position dim, which must have size 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return t.wrap(t.backend.Squeeze(t.raw, dim))
}

// Expand broadcasts size-1 dimensions up to the target shape,
// materializing the result.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return t.wrap(t.backend.Expand(t.raw, shape))
}

// Slice returns a copy of the tensor restricted to [start, end) along
// dim. Used for splitting projections without reshaping tricks.
func (t *Tensor[T, B]) Slice(dim, start, end int) *Tensor[T, B] {
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("tensor: Slice dim %d out of range for shape %v", dim, shape))
	}
	if start < 0 || end > shape[dim] || start >= end {
		panic(fmt.Sprintf("tensor: Slice range [%d, %d) invalid for dim %d (size %d)", start, end, dim, shape[dim]))
	}

	outShape := shape.Clone()
	outShape[dim] = end - start
	out := New[T](outShape, t.backend)

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	src := t.Data()
	dst := out.Data()
	for o := 0; o < outer; o++ {
		srcBase := o*shape[dim]*inner + start*inner
		dstBase := o * (end - start) * inner
		copy(dst[dstBase:dstBase+(end-start)*inner], src[srcBase:srcBase+(end-start)*inner])
	}
	return out
}
