package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// SumDim sums along dim. dim may be negative. With keepDim the reduced
// dimension stays as size 1, otherwise it is removed.
func (c *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: sumdim requires float32, got %s", x.DType()))
	}
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: sumdim dim out of range for shape %v", shape))
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	size := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, s)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := tensor.NewRaw(outShape, tensor.Float32, tensor.CPU)
	src, dst := x.Float32s(), out.Float32s()

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var sum float32
			base := o*size*inner + in
			for i := 0; i < size; i++ {
				sum += src[base+i*inner]
			}
			dst[o*inner+in] = sum
		}
	}
	return out
}

// MeanDim averages along dim.
func (c *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	d := dim
	if d < 0 {
		d += len(shape)
	}
	if d < 0 || d >= len(shape) {
		panic(fmt.Sprintf("cpu: meandim dim out of range for shape %v", shape))
	}
	out := c.SumDim(x, dim, keepDim)
	inv := 1 / float32(shape[d])
	dst := out.Float32s()
	for i := range dst {
		dst[i] *= inv
	}
	return out
}
