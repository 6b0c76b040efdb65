// Package cpu implements a pure-Go CPU backend for the tensor engine.
package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/parallel"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// CPUBackend computes tensor operations on the host CPU in pure Go.
// The zero value is not usable; construct with New.
type CPUBackend struct {
	parallel parallel.Config
}

// New creates a CPU backend with parallelism enabled.
func New() *CPUBackend {
	return &CPUBackend{parallel: parallel.DefaultConfig()}
}

// NewSequential creates a CPU backend that never spawns goroutines.
// Useful for deterministic profiling and small workloads.
func NewSequential() *CPUBackend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &CPUBackend{parallel: cfg}
}

// Name returns the backend identifier.
func (c *CPUBackend) Name() string { return "cpu" }

// Device returns the CPU device.
func (c *CPUBackend) Device() tensor.Device { return tensor.CPU }

// Add performs element-wise addition with broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, "add", func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, "sub", func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, "mul", func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp(a, b, "div", func(x, y float32) float32 { return x / y })
}

func (c *CPUBackend) binaryOp(a, b *tensor.RawTensor, name string, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s requires float32 operands, got %s and %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", name, err))
	}

	out := tensor.NewRaw(outShape, tensor.Float32, tensor.CPU)
	dst := out.Float32s()

	if !needsBroadcast {
		av := a.Float32s()
		bv := b.Float32s()
		for i := range dst {
			dst[i] = op(av[i], bv[i])
		}
		return out
	}

	av := a.Float32s()
	bv := b.Float32s()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		dst[i] = op(av[aIdx], bv[bIdx])
	}
	return out
}

// Reshape returns a copy of x with a new shape. The element count must
// be preserved.
func (c *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("cpu: reshape from %v to %v changes element count", x.Shape(), shape))
	}
	out := x.Clone()
	out.SetShape(shape)
	return out
}

// Transpose permutes the axes of x. axes must be a permutation of
// [0, rank).
func (c *CPUBackend) Transpose(x *tensor.RawTensor, axes []int) *tensor.RawTensor {
	shape := x.Shape()
	rank := len(shape)
	if len(axes) != rank {
		panic(fmt.Sprintf("cpu: transpose axes %v do not match rank %d", axes, rank))
	}
	seen := make([]bool, rank)
	for _, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose axes %v are not a permutation of [0, %d)", axes, rank))
		}
		seen[ax] = true
	}

	outShape := make(tensor.Shape, rank)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	out := tensor.NewRaw(outShape, x.DType(), tensor.CPU)
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: transpose requires float32, got %s", x.DType()))
	}

	src := x.Float32s()
	dst := out.Float32s()
	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		rem := i
		srcIdx := 0
		for d := 0; d < rank; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
	return out
}

// Expand broadcasts size-1 dimensions of x up to shape, materializing
// the result.
func (c *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("cpu: cannot expand %v to %v", x.Shape(), shape))
	}

	out := tensor.NewRaw(shape, x.DType(), tensor.CPU)
	xStrides := broadcastStrides(x.Shape(), shape)
	outStrides := shape.ComputeStrides()

	switch x.DType() {
	case tensor.Float32:
		src := x.Float32s()
		dst := out.Float32s()
		for i := range dst {
			dst[i] = src[broadcastSourceIndex(i, outStrides, xStrides, len(shape))]
		}
	case tensor.Bool:
		src := x.Bools()
		dst := out.Bools()
		for i := range dst {
			dst[i] = src[broadcastSourceIndex(i, outStrides, xStrides, len(shape))]
		}
	default:
		panic(fmt.Sprintf("cpu: expand unsupported for %s", x.DType()))
	}
	return out
}
