package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// Cat concatenates tensors along dim. All tensors must share dtype and
// every dimension except dim.
func (c *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cpu: cat requires at least one tensor")
	}
	first := tensors[0]
	shape := first.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: cat dim out of range for shape %v", shape))
	}

	catSize := 0
	for _, t := range tensors {
		ts := t.Shape()
		if t.DType() != first.DType() || len(ts) != len(shape) {
			panic("cpu: cat tensors must share dtype and rank")
		}
		for d := range ts {
			if d != dim && ts[d] != shape[d] {
				panic(fmt.Sprintf("cpu: cat shape mismatch at dim %d: %v vs %v", d, ts, shape))
			}
		}
		catSize += ts[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = catSize
	out := tensor.NewRaw(outShape, first.DType(), tensor.CPU)

	elemSize := first.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	dst := out.Data()
	outRow := catSize * inner * elemSize
	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		row := size * inner * elemSize
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*outRow+offset:o*outRow+offset+row], src[o*row:(o+1)*row])
		}
		offset += row
	}
	return out
}

// Chunk splits x into equal parts along dim. The dimension size must
// be divisible by chunks.
func (c *CPUBackend) Chunk(x *tensor.RawTensor, chunks, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: chunk dim out of range for shape %v", shape))
	}
	if chunks < 1 || shape[dim]%chunks != 0 {
		panic(fmt.Sprintf("cpu: chunk cannot split dim of size %d into %d parts", shape[dim], chunks))
	}

	size := shape[dim] / chunks
	elemSize := x.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	outShape := shape.Clone()
	outShape[dim] = size
	src := x.Data()
	srcRow := shape[dim] * inner * elemSize
	row := size * inner * elemSize

	out := make([]*tensor.RawTensor, chunks)
	for ci := range out {
		part := tensor.NewRaw(outShape, x.DType(), tensor.CPU)
		dst := part.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*row:(o+1)*row], src[o*srcRow+ci*row:o*srcRow+(ci+1)*row])
		}
		out[ci] = part
	}
	return out
}

// Unsqueeze inserts a size-1 dimension at dim.
func (c *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("cpu: unsqueeze dim %d out of range for shape %v", dim, shape))
	}
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	out := x.Clone()
	out.SetShape(newShape)
	return out
}

// Squeeze removes the dimension at dim, which must have size 1.
func (c *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: squeeze dim %d out of range for shape %v", dim, shape))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("cpu: squeeze dim %d has size %d, expected 1", dim, shape[dim]))
	}
	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	if len(newShape) == 0 {
		newShape = tensor.Shape{1}
	}
	out := x.Clone()
	out.SetShape(newShape)
	return out
}

// MaskedFill writes value into x wherever the broadcastable bool mask
// is true.
func (c *CPUBackend) MaskedFill(x *tensor.RawTensor, mask *tensor.RawTensor, value float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: maskedfill requires a float32 target, got %s", x.DType()))
	}
	if mask.DType() != tensor.Bool {
		panic(fmt.Sprintf("cpu: maskedfill requires a bool mask, got %s", mask.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(x.Shape(), mask.Shape())
	if err != nil || !outShape.Equal(x.Shape()) {
		panic(fmt.Sprintf("cpu: maskedfill mask %v does not broadcast to %v", mask.Shape(), x.Shape()))
	}

	out := x.Clone()
	dst := out.Float32s()
	mv := mask.Bools()
	mStrides := broadcastStrides(mask.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		if mv[broadcastSourceIndex(i, outStrides, mStrides, len(outShape))] {
			dst[i] = value
		}
	}
	return out
}
