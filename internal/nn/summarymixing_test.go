package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func summaryConfig(mode string) SummaryMixingConfig {
	return SummaryMixingConfig{
		DModel:          16,
		Mode:            mode,
		LocalProjHidDim: []int{16},
		LocalProjOutDim: 12,
		SummaryHidDim:   []int{16},
		SummaryOutDim:   8,
		Activation:      ActGELU,
	}
}

func TestSummaryMixing_FullWidth(t *testing.T) {
	backend := cpu.New()

	sm := NewSummaryMixing(summaryConfig(ModeSummaryMixing), backend)
	assert.Equal(t, 20, sm.OutputDim())

	rng := rand.New(rand.NewSource(51))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := sm.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 20}, out.Shape())
	assert.False(t, weights.Present())
}

func TestSummaryMixing_LiteWidth(t *testing.T) {
	backend := cpu.New()

	sm := NewSummaryMixing(summaryConfig(ModeSummaryMixingLite), backend)
	assert.Equal(t, 8, sm.OutputDim())

	rng := rand.New(rand.NewSource(52))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out, weights := sm.Forward(x, nil, nil, nil)
	assert.Equal(t, tensor.Shape{2, 6, 8}, out.Shape())
	assert.False(t, weights.Present())
}

func TestSummaryMixing_LiteBroadcastsSummary(t *testing.T) {
	backend := cpu.New()

	sm := NewSummaryMixing(summaryConfig(ModeSummaryMixingLite), backend)
	rng := rand.New(rand.NewSource(53))
	x := tensor.Randn(tensor.Shape{1, 5, 16}, rng, backend)

	out, _ := sm.Forward(x, nil, nil, nil)
	// Every frame receives the same summary vector.
	for frame := 1; frame < 5; frame++ {
		for d := 0; d < 8; d++ {
			assert.Equal(t, out.At(0, 0, d), out.At(0, frame, d))
		}
	}
}

func TestSummaryMixing_MaskedMeanIgnoresPadding(t *testing.T) {
	backend := cpu.New()

	sm := NewSummaryMixing(summaryConfig(ModeSummaryMixingLite), backend)
	rng := rand.New(rand.NewSource(54))

	// Six frames, last two are padding.
	full := tensor.Randn(tensor.Shape{1, 6, 16}, rng, backend)
	mask, err := tensor.FromSlice([]bool{false, false, false, false, true, true},
		tensor.Shape{1, 6}, backend)
	require.NoError(t, err)

	// Same first four frames with no padding at all.
	prefix := full.Slice(1, 0, 4)

	masked, _ := sm.Forward(full, nil, mask, nil)
	unpadded, _ := sm.Forward(prefix, nil, nil, nil)

	for d := 0; d < 8; d++ {
		assert.InDelta(t, unpadded.At(0, 0, d), masked.At(0, 0, d), 1e-5)
	}
}

func TestSummaryMixing_UnknownModePanics(t *testing.T) {
	backend := cpu.New()
	cfg := summaryConfig("SummaryMixing-turbo")
	assert.Panics(t, func() { NewSummaryMixing(cfg, backend) })
}
