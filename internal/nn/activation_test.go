package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestActivations_KnownValues(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{-2, -1, 0, 1, 2}, tensor.Shape{1, 5}, backend)
	require.NoError(t, err)

	tests := []struct {
		kind string
		want []float32
	}{
		{ActReLU, []float32{0, 0, 0, 1, 2}},
		{ActSigmoid, []float32{0.1192, 0.2689, 0.5, 0.7311, 0.8808}},
		{ActGELU, []float32{-0.0454, -0.1588, 0, 0.8412, 1.9546}},
		{ActIdentity, []float32{-2, -1, 0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			act := NewActivation(tt.kind, backend)
			out := act.Forward(x)
			for i, v := range out.Data() {
				assert.InDelta(t, tt.want[i], v, 0.001, "%s at index %d", tt.kind, i)
			}
		})
	}
}

func TestNewActivation_UnknownPanics(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewActivation("swish", backend) })
}

func TestIdentity_PassesThrough(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	id := NewIdentity(backend)
	assert.Same(t, x, id.Forward(x))
}
