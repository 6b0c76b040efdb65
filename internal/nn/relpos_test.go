package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestRelPosEncXL_Shape(t *testing.T) {
	backend := cpu.New()

	enc := NewRelPosEncXL(16, backend)
	pe := enc.MakePE(6)
	assert.Equal(t, tensor.Shape{1, 11, 16}, pe.Shape())
}

func TestRelPosEncXL_SymmetricAroundCenter(t *testing.T) {
	backend := cpu.New()

	enc := NewRelPosEncXL(8, backend)
	seqLen := 5
	pe := enc.MakePE(seqLen)

	// Offset j and its mirror 2*(seqLen-1)-j encode the same distance.
	for j := 0; j < seqLen-1; j++ {
		mirror := 2*(seqLen-1) - j
		for d := 0; d < 8; d++ {
			assert.InDelta(t, pe.At(0, j, d), pe.At(0, mirror, d), 1e-6)
		}
	}

	// The center encodes offset zero: sin terms 0, cos terms 1.
	center := seqLen - 1
	for d := 0; d < 8; d += 2 {
		assert.InDelta(t, 0, pe.At(0, center, d), 1e-6)
		assert.InDelta(t, 1, pe.At(0, center, d+1), 1e-6)
	}
}

func TestRelShift(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 1, 2, 3}, backend)
	require.NoError(t, err)

	out := relShift(x)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	// Query i, key j reads relative offset j-i, i.e. source column
	// j-i+time-1.
	assert.Equal(t, []float32{2, 3, 4, 5}, out.Data())
}

func TestRelPosMHAXL_Shapes(t *testing.T) {
	backend := cpu.New()

	attn := NewRelPosMHAXL(16, 4, 0, backend)
	enc := NewRelPosEncXL(16, backend)
	rng := rand.New(rand.NewSource(21))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := attn.Forward(x, nil, nil, enc.MakePE(6))
	assert.Equal(t, tensor.Shape{2, 6, 16}, out.Shape())
	require.True(t, weights.Present())
	assert.Equal(t, tensor.Shape{2, 4, 6, 6}, weights.Tensor().Shape())
}

func TestRelPosMHAXL_MissingPosEmbsPanics(t *testing.T) {
	backend := cpu.New()

	attn := NewRelPosMHAXL(16, 4, 0, backend)
	rng := rand.New(rand.NewSource(22))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	assert.Panics(t, func() { attn.Forward(x, nil, nil, nil) })
}

func TestRelPosMHAXL_WrongPosEmbsShapePanics(t *testing.T) {
	backend := cpu.New()

	attn := NewRelPosMHAXL(16, 4, 0, backend)
	enc := NewRelPosEncXL(16, backend)
	rng := rand.New(rand.NewSource(23))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	assert.Panics(t, func() { attn.Forward(x, nil, nil, enc.MakePE(5)) })
}

func TestRelPosMHAXL_PaddedKeysZeroed(t *testing.T) {
	backend := cpu.New()

	attn := NewRelPosMHAXL(16, 4, 0, backend)
	enc := NewRelPosEncXL(16, backend)
	rng := rand.New(rand.NewSource(24))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	mask, err := tensor.FromSlice([]bool{false, false, true, true}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	_, weights := attn.Forward(x, nil, mask, enc.MakePE(4))
	w := weights.Tensor()
	for h := 0; h < 4; h++ {
		for q := 0; q < 4; q++ {
			assert.Zero(t, w.At(0, h, q, 2))
			assert.Zero(t, w.At(0, h, q, 3))
		}
	}
}
