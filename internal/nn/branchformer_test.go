package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func testConvBranch(backend *cpu.CPUBackend) *ConvolutionBranch[*cpu.CPUBackend] {
	return NewConvolutionBranch(ConvolutionBranchConfig{
		DModel:      16,
		LinearUnits: 32,
		KernelSize:  3,
	}, backend)
}

func TestBranchformerLayer_WithAttention(t *testing.T) {
	backend := cpu.New()

	layer := NewBranchformerLayer(BranchformerLayerConfig{DModel: 16},
		NewMultiHeadAttention(16, 4, 0, backend), testConvBranch(backend), false, backend)

	rng := rand.New(rand.NewSource(71))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := layer.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 16}, out.Shape())
	require.True(t, weights.Present())
	assert.Equal(t, tensor.Shape{2, 4, 6, 6}, weights.Tensor().Shape())
}

func TestBranchformerLayer_ConvOnly(t *testing.T) {
	backend := cpu.New()

	layer := NewBranchformerLayer(BranchformerLayerConfig{DModel: 16},
		nil, testConvBranch(backend), false, backend)
	assert.True(t, layer.ConvOnly())

	rng := rand.New(rand.NewSource(72))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := layer.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 16}, out.Shape())
	assert.False(t, weights.Present())
}

func TestBranchformerLayer_SummaryMerge(t *testing.T) {
	backend := cpu.New()

	sm := NewSummaryMixing(summaryConfig(ModeSummaryMixing), backend)
	layer := NewBranchformerLayer(BranchformerLayerConfig{
		DModel:        16,
		SummaryHidDim: []int{16},
	}, sm, testConvBranch(backend), true, backend)

	rng := rand.New(rand.NewSource(73))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := layer.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 16}, out.Shape())
	assert.False(t, weights.Present())
}

func TestBranchformerLayer_SeparateNorms(t *testing.T) {
	backend := cpu.New()

	layer := NewBranchformerLayer(BranchformerLayerConfig{DModel: 16},
		NewMultiHeadAttention(16, 4, 0, backend), testConvBranch(backend), false, backend)

	require.NotNil(t, layer.normGlobal)
	require.NotNil(t, layer.normConv)
	assert.NotSame(t, layer.normGlobal, layer.normConv)
}
