package cpu

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/parallel"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// Softmax applies softmax along dim with max subtraction for numerical
// stability. dim may be negative.
func (c *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: softmax requires float32, got %s", x.DType()))
	}
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: softmax dim out of range for shape %v", shape))
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

	out := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	src, dst := x.Float32s(), out.Float32s()

	parallel.For(outer*inner, func(oi int) {
		o := oi / inner
		in := oi % inner
		base := o*size*inner + in

		maxVal := float32(math.Inf(-1))
		for i := 0; i < size; i++ {
			if v := src[base+i*inner]; v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for i := 0; i < size; i++ {
			e := float32(math.Exp(float64(src[base+i*inner] - maxVal)))
			dst[base+i*inner] = e
			sum += e
		}
		for i := 0; i < size; i++ {
			dst[base+i*inner] /= sum
		}
	}, c.parallel)
	return out
}
