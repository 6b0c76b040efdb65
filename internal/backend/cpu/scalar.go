package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// AddScalar adds a scalar to every element of x.
func (c *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32(scalar, "AddScalar")
	return c.unaryOp(x, "addscalar", func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element of x by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32(scalar, "MulScalar")
	return c.unaryOp(x, "mulscalar", func(v float32) float32 { return v * s })
}

func asFloat32(scalar any, op string) float32 {
	switch s := scalar.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	default:
		panic(fmt.Sprintf("cpu: %s requires a numeric scalar, got %T", op, scalar))
	}
}
