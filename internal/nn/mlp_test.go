package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestMLP_Shapes(t *testing.T) {
	backend := cpu.New()

	m := NewMLP(16, []int{32, 8}, ActGELU, true, backend)
	assert.Equal(t, 8, m.OutputDim())

	rng := rand.New(rand.NewSource(7))
	x := tensor.Randn(tensor.Shape{2, 5, 16}, rng, backend)
	out := m.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 8}, out.Shape())
}

func TestMLP_NoFinalActivation(t *testing.T) {
	backend := cpu.New()

	// With ReLU on every layer the output is non-negative; leaving the
	// final layer raw must be able to produce negative values.
	m := NewMLP(4, []int{4}, ActReLU, false, backend)
	copy(m.layers[0].Weight.Tensor.Data(), []float32{
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, -1,
	})

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	assert.NoError(t, err)

	out := m.Forward(x)
	for _, v := range out.Data() {
		assert.Negative(t, v)
	}
}

func TestMLP_EmptyWidthsPanics(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewMLP(4, nil, ActGELU, true, backend) })
}
