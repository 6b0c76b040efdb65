package nn

import "github.com/whettenr/speechbrain/internal/tensor"

// Module is the interface for layers mapping a float32 tensor to a
// float32 tensor. Layers with richer signatures (the global-mixing
// strategies) define their own interfaces.
type Module[B tensor.Backend] interface {
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
}
