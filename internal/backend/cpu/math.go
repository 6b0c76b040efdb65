package cpu

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/tensor"
)

func (c *CPUBackend) unaryOp(x *tensor.RawTensor, name string, op func(float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s requires float32, got %s", name, x.DType()))
	}
	out := tensor.NewRaw(x.Shape(), tensor.Float32, tensor.CPU)
	src, dst := x.Float32s(), out.Float32s()
	for i := range src {
		dst[i] = op(src[i])
	}
	return out
}

// Exp applies e^x element-wise.
func (c *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "exp", func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Sqrt applies the square root element-wise.
func (c *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "sqrt", func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// Rsqrt applies 1/sqrt(x) element-wise.
func (c *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "rsqrt", func(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) })
}

// Cos applies the cosine element-wise.
func (c *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "cos", func(v float32) float32 { return float32(math.Cos(float64(v))) })
}

// Sin applies the sine element-wise.
func (c *CPUBackend) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "sin", func(v float32) float32 { return float32(math.Sin(float64(v))) })
}

// ReLU applies max(0, x) element-wise.
func (c *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "relu", func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid applies 1/(1+e^-x) element-wise.
func (c *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "sigmoid", func(v float32) float32 {
		return float32(1 / (1 + math.Exp(-float64(v))))
	})
}

// Tanh applies the hyperbolic tangent element-wise.
func (c *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp(x, "tanh", func(v float32) float32 { return float32(math.Tanh(float64(v))) })
}
