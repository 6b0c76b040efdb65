// Package nn provides the neural network building blocks of the
// Branchformer encoder: linear and normalization layers, activation
// and dropout modules, the global-mixing strategies, the convolution
// branch and the encoder stack itself.
package nn

import "github.com/whettenr/speechbrain/internal/tensor"

// Parameter is a named learnable tensor.
type Parameter[B tensor.Backend] struct {
	Name   string
	Tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{Name: name, Tensor: t}
}
