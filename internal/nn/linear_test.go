package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestLinear_KnownValues(t *testing.T) {
	backend := cpu.New()

	l := NewLinear(2, 3, true, backend)
	copy(l.Weight.Tensor.Data(), []float32{
		1, 0,
		0, 1,
		1, 1,
	})
	copy(l.Bias.Tensor.Data(), []float32{1, 2, 3})

	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	out := l.Forward(x)
	assert.Equal(t, tensor.Shape{1, 3}, out.Shape())
	assert.Equal(t, []float32{2, 4, 6}, out.Data())
}

func TestLinear_LeadingDims(t *testing.T) {
	backend := cpu.New()

	l := NewLinear(8, 4, true, backend)
	rng := rand.New(rand.NewSource(1))
	x := tensor.Randn(tensor.Shape{2, 5, 8}, rng, backend)

	out := l.Forward(x)
	assert.Equal(t, tensor.Shape{2, 5, 4}, out.Shape())
}

func TestLinear_NoBias(t *testing.T) {
	backend := cpu.New()

	l := NewLinear(4, 4, false, backend)
	assert.Nil(t, l.Bias)
	assert.Len(t, l.Parameters(), 1)
}

func TestLinear_FeatureMismatchPanics(t *testing.T) {
	backend := cpu.New()

	l := NewLinear(8, 4, true, backend)
	rng := rand.New(rand.NewSource(1))
	x := tensor.Randn(tensor.Shape{2, 5, 7}, rng, backend)

	assert.Panics(t, func() { l.Forward(x) })
}
