package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestHyperMixing_Shapes(t *testing.T) {
	backend := cpu.New()

	hm := NewHyperMixing(16, 32, 4, backend)
	rng := rand.New(rand.NewSource(41))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := hm.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 16}, out.Shape())

	// No attention matrix exists; the artifact is a zero placeholder.
	require.True(t, weights.Present())
	assert.Equal(t, tensor.Shape{2, 4, 6, 6}, weights.Tensor().Shape())
	for _, v := range weights.Tensor().Data() {
		assert.Zero(t, v)
	}
}

func TestHyperMixing_MixesAcrossTime(t *testing.T) {
	backend := cpu.New()

	hm := NewHyperMixing(8, 16, 2, backend)
	rng := rand.New(rand.NewSource(42))

	// Changing one frame must influence other frames' outputs.
	x := tensor.Randn(tensor.Shape{1, 4, 8}, rng, backend)
	base, _ := hm.Forward(x, nil, nil, nil)

	perturbed := x.Clone()
	perturbed.SetAt(perturbed.At(0, 0, 0)+10, 0, 0, 0)
	moved, _ := hm.Forward(perturbed, nil, nil, nil)

	changed := false
	for d := 0; d < 8; d++ {
		if base.At(0, 3, d) != moved.At(0, 3, d) {
			changed = true
			break
		}
	}
	assert.True(t, changed, "frame 0 perturbation did not reach frame 3")
}

func TestHyperMixing_InvalidSizesPanic(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewHyperMixing(16, 30, 4, backend) })
	assert.Panics(t, func() { NewHyperMixing(15, 32, 4, backend) })
}
