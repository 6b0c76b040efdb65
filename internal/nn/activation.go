package nn

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// Optional backend capabilities. Backends that provide a fused kernel
// for an activation implement the matching interface; modules check at
// construction and panic if the backend lacks the op.

// ReLUBackend is implemented by backends with a ReLU kernel.
type ReLUBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends with a sigmoid kernel.
type SigmoidBackend interface {
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends with a tanh kernel.
type TanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// Activation tags accepted by NewActivation.
const (
	ActGELU     = "gelu"
	ActReLU     = "relu"
	ActSigmoid  = "sigmoid"
	ActTanh     = "tanh"
	ActIdentity = "identity"
)

// NewActivation builds an activation module from its string tag.
// Panics on an unknown tag.
func NewActivation[B tensor.Backend](kind string, backend B) Module[B] {
	switch kind {
	case ActGELU:
		return NewGELU(backend)
	case ActReLU:
		return NewReLU(backend)
	case ActSigmoid:
		return NewSigmoid(backend)
	case ActTanh:
		return NewTanh(backend)
	case ActIdentity:
		return NewIdentity(backend)
	default:
		panic(fmt.Sprintf("nn: unknown activation %q", kind))
	}
}

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] struct {
	backend B
}

// NewReLU creates a ReLU module. Panics if the backend has no ReLU kernel.
func NewReLU[B tensor.Backend](backend B) *ReLU[B] {
	if _, ok := any(backend).(ReLUBackend); !ok {
		panic(fmt.Sprintf("nn: backend %s does not support ReLU", backend.Name()))
	}
	return &ReLU[B]{backend: backend}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := any(r.backend).(ReLUBackend).ReLU(x.Raw())
	return tensor.FromRaw[float32](raw, r.backend)
}

// Parameters returns no parameters.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// Sigmoid applies 1/(1+e^-x).
type Sigmoid[B tensor.Backend] struct {
	backend B
}

// NewSigmoid creates a Sigmoid module. Panics if the backend has no
// sigmoid kernel.
func NewSigmoid[B tensor.Backend](backend B) *Sigmoid[B] {
	if _, ok := any(backend).(SigmoidBackend); !ok {
		panic(fmt.Sprintf("nn: backend %s does not support Sigmoid", backend.Name()))
	}
	return &Sigmoid[B]{backend: backend}
}

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := any(s.backend).(SigmoidBackend).Sigmoid(x.Raw())
	return tensor.FromRaw[float32](raw, s.backend)
}

// Parameters returns no parameters.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct {
	backend B
}

// NewTanh creates a Tanh module. Panics if the backend has no tanh
// kernel.
func NewTanh[B tensor.Backend](backend B) *Tanh[B] {
	if _, ok := any(backend).(TanhBackend); !ok {
		panic(fmt.Sprintf("nn: backend %s does not support Tanh", backend.Name()))
	}
	return &Tanh[B]{backend: backend}
}

// Forward applies the activation.
func (t *Tanh[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := any(t.backend).(TanhBackend).Tanh(x.Raw())
	return tensor.FromRaw[float32](raw, t.backend)
}

// Parameters returns no parameters.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// GELU applies the Gaussian error linear unit using the tanh
// approximation: 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715*x^3))).
type GELU[B tensor.Backend] struct {
	backend B
}

// NewGELU creates a GELU module. Panics if the backend has no tanh
// kernel.
func NewGELU[B tensor.Backend](backend B) *GELU[B] {
	if _, ok := any(backend).(TanhBackend); !ok {
		panic(fmt.Sprintf("nn: backend %s does not support GELU (needs Tanh)", backend.Name()))
	}
	return &GELU[B]{backend: backend}
}

// Forward applies the activation.
func (g *GELU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// x + 0.044715 * x^3
	x3 := x.Mul(x).Mul(x)
	inner := x.Add(x3.MulScalar(0.044715))
	inner = inner.MulScalar(float32(math.Sqrt(2 / math.Pi)))

	raw := any(g.backend).(TanhBackend).Tanh(inner.Raw())
	tanh := tensor.FromRaw[float32](raw, g.backend)
	return x.Mul(tanh.AddScalar(1)).MulScalar(0.5)
}

// Parameters returns no parameters.
func (g *GELU[B]) Parameters() []*Parameter[B] { return nil }

// Identity passes its input through unchanged.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates an Identity module.
func NewIdentity[B tensor.Backend](_ B) *Identity[B] {
	return &Identity[B]{}
}

// Forward returns x.
func (id *Identity[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x
}

// Parameters returns no parameters.
func (id *Identity[B]) Parameters() []*Parameter[B] { return nil }
