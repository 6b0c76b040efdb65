package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// MLP is a stack of Linear layers with a shared activation between
// them. When activateFinal is false the last layer's output is left
// raw, which the summary-family merge projection relies on.
type MLP[B tensor.Backend] struct {
	layers        []*Linear[B]
	activation    Module[B]
	activateFinal bool
	outputDim     int
}

// NewMLP creates an MLP mapping inputDim through the given layer
// widths. neurons must name at least one layer.
func NewMLP[B tensor.Backend](inputDim int, neurons []int, activation string, activateFinal bool, backend B) *MLP[B] {
	if len(neurons) == 0 {
		panic("nn: mlp requires at least one layer width")
	}

	layers := make([]*Linear[B], len(neurons))
	prev := inputDim
	for i, width := range neurons {
		if width <= 0 {
			panic(fmt.Sprintf("nn: invalid mlp layer width %d at index %d", width, i))
		}
		layers[i] = NewLinear(prev, width, true, backend)
		prev = width
	}

	return &MLP[B]{
		layers:        layers,
		activation:    NewActivation(activation, backend),
		activateFinal: activateFinal,
		outputDim:     prev,
	}
}

// OutputDim returns the width of the final layer.
func (m *MLP[B]) OutputDim() int { return m.outputDim }

// Forward applies the stack.
func (m *MLP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := x
	for i, layer := range m.layers {
		out = layer.Forward(out)
		if i < len(m.layers)-1 || m.activateFinal {
			out = m.activation.Forward(out)
		}
	}
	return out
}

// Parameters returns all layer parameters.
func (m *MLP[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}
