package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func testEncoderConfig(attentionType string) EncoderConfig {
	return EncoderConfig{
		NumLayers:       2,
		DModel:          16,
		NumHeads:        4,
		AttentionType:   attentionType,
		KernelSize:      3,
		CSGULinearUnits: 32,
		LocalProjHidDim: []int{16},
		LocalProjOutDim: 16,
		SummaryHidDim:   []int{16},
		SummaryOutDim:   16,
	}
}

func TestEncoder_ShapePreservation(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(81))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	tests := []struct {
		name          string
		attentionType string
		mode          string
	}{
		{"regular mha", AttnRegularMHA, ""},
		{"relpos mha", AttnRelPosMHAXL, ""},
		{"hypermixing", AttnHyperMixing, ""},
		{"fastattention", AttnFastAttention, ""},
		{"summary full", AttnSummaryMixing, ModeSummaryMixing},
		{"summary lite", AttnSummaryMixing, ModeSummaryMixingLite},
		{"conv only", AttnConvOnly, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testEncoderConfig(tt.attentionType)
			cfg.Mode = tt.mode
			enc := NewBranchformerEncoder(cfg, backend)

			opts := ForwardOptions[*cpu.CPUBackend]{}
			if tt.attentionType == AttnRelPosMHAXL {
				opts.PosEmbs = NewRelPosEncXL(16, backend).MakePE(6)
			}

			out := enc.Forward(x, opts)
			assert.Equal(t, tensor.Shape{2, 6, 16}, out.Output.Shape())
			assert.Len(t, out.Attentions, 2)
		})
	}
}

func TestEncoder_AttentionArtifacts(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(82))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	// Attention-like strategies expose per-head weights; the
	// summary-mixing family and convolution-only layers do not.
	present := map[string]bool{
		AttnRegularMHA:    true,
		AttnRelPosMHAXL:   true,
		AttnHyperMixing:   true,
		AttnFastAttention: true,
		AttnSummaryMixing: false,
		AttnConvOnly:      false,
	}
	for attentionType, wantPresent := range present {
		t.Run(attentionType, func(t *testing.T) {
			enc := NewBranchformerEncoder(testEncoderConfig(attentionType), backend)

			opts := ForwardOptions[*cpu.CPUBackend]{}
			if attentionType == AttnRelPosMHAXL {
				opts.PosEmbs = NewRelPosEncXL(16, backend).MakePE(6)
			}

			out := enc.Forward(x, opts)
			require.Len(t, out.Attentions, 2)
			for _, w := range out.Attentions {
				assert.Equal(t, wantPresent, w.Present())
				if wantPresent {
					assert.Equal(t, tensor.Shape{2, 4, 6, 6}, w.Tensor().Shape())
				}
			}
		})
	}
}

func TestEncoder_EvalIsDeterministic(t *testing.T) {
	backend := cpu.New()

	cfg := testEncoderConfig(AttnRegularMHA)
	cfg.Dropout = 0.1
	cfg.LayerDropProb = 0.5
	enc := NewBranchformerEncoder(cfg, backend)

	rng := rand.New(rand.NewSource(83))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	first := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
	second := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})

	assert.Equal(t, first.Output.Data(), second.Output.Data())
	assert.Len(t, first.Attentions, 2)
	assert.Len(t, second.Attentions, 2)
}

func TestEncoder_LayerDropStatistics(t *testing.T) {
	backend := cpu.New()

	cfg := testEncoderConfig(AttnConvOnly)
	cfg.NumLayers = 10
	cfg.LayerDropProb = 0.5
	cfg.OutputHiddenStates = true
	cfg.Seed = 84
	enc := NewBranchformerEncoder(cfg, backend)
	enc.SetTraining(true)

	rng := rand.New(rand.NewSource(85))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	calls := 100
	executed := 0
	for i := 0; i < calls; i++ {
		out := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
		executed += len(out.HiddenStates) - 1
	}

	// Expectation is L * (1-p) * calls = 500.
	assert.InDelta(t, 500, executed, 100)
}

func TestEncoder_SkippedLayersAreIdentity(t *testing.T) {
	backend := cpu.New()

	cfg := testEncoderConfig(AttnConvOnly)
	cfg.NumLayers = 1
	cfg.LayerDropProb = 0.9
	cfg.OutputHiddenStates = true
	cfg.Seed = 86
	enc := NewBranchformerEncoder(cfg, backend)
	enc.SetTraining(true)

	rng := rand.New(rand.NewSource(87))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	sawSkip := false
	for i := 0; i < 50 && !sawSkip; i++ {
		out := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
		if len(out.Attentions) > 0 {
			continue
		}
		sawSkip = true

		// The skipped layer passed the input through untouched; the
		// final norm ran on the raw input.
		require.Len(t, out.HiddenStates, 1)
		assert.Equal(t, x.Data(), out.HiddenStates[0].Data())

		want := enc.finalNorm.Forward(x)
		assert.Equal(t, want.Data(), out.Output.Data())
	}
	require.True(t, sawSkip, "layer drop with p=0.9 never skipped in 50 calls")
}

func TestEncoder_RelPosRequiresPosEmbs(t *testing.T) {
	backend := cpu.New()

	enc := NewBranchformerEncoder(testEncoderConfig(AttnRelPosMHAXL), backend)
	rng := rand.New(rand.NewSource(88))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	assert.Panics(t, func() { enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{}) })
}

func TestEncoder_StreamingConfigRejected(t *testing.T) {
	backend := cpu.New()

	enc := NewBranchformerEncoder(testEncoderConfig(AttnRegularMHA), backend)
	rng := rand.New(rand.NewSource(89))
	x := tensor.Randn(tensor.Shape{1, 4, 16}, rng, backend)

	assert.Panics(t, func() {
		enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{
			DynChunkTrain: &DynChunkTrainConfig{ChunkSize: 16},
		})
	})
}

func TestEncoder_HiddenStates(t *testing.T) {
	backend := cpu.New()

	cfg := testEncoderConfig(AttnRegularMHA)
	cfg.OutputHiddenStates = true
	enc := NewBranchformerEncoder(cfg, backend)

	rng := rand.New(rand.NewSource(90))
	x := tensor.Randn(tensor.Shape{2, 6, 16}, rng, backend)

	out := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
	require.Len(t, out.HiddenStates, 3)
	assert.Same(t, x, out.HiddenStates[0])
	for _, h := range out.HiddenStates {
		assert.Equal(t, tensor.Shape{2, 6, 16}, h.Shape())
	}
}

func TestEncoder_UnknownAttentionTypePanics(t *testing.T) {
	backend := cpu.New()
	cfg := testEncoderConfig("flashattention")
	assert.Panics(t, func() { NewBranchformerEncoder(cfg, backend) })
}

func TestEncoder_InvalidLayerDropPanics(t *testing.T) {
	backend := cpu.New()
	cfg := testEncoderConfig(AttnRegularMHA)
	cfg.LayerDropProb = 1
	assert.Panics(t, func() { NewBranchformerEncoder(cfg, backend) })
}

func TestEncoder_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("large configuration")
	}
	backend := cpu.New()

	enc := NewBranchformerEncoder(EncoderConfig{
		NumLayers:       2,
		DModel:          512,
		NumHeads:        8,
		AttentionType:   AttnRegularMHA,
		KernelSize:      3,
		CSGULinearUnits: 256,
	}, backend)

	rng := rand.New(rand.NewSource(91))
	x := tensor.Randn(tensor.Shape{8, 60, 512}, rng, backend)

	out := enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
	assert.Equal(t, tensor.Shape{8, 60, 512}, out.Output.Shape())
	require.Len(t, out.Attentions, 2)
	for _, w := range out.Attentions {
		require.True(t, w.Present())
		assert.Equal(t, tensor.Shape{8, 8, 60, 60}, w.Tensor().Shape())
	}
}

func BenchmarkEncoder_Forward(b *testing.B) {
	backend := cpu.New()

	enc := NewBranchformerEncoder(testEncoderConfig(AttnRegularMHA), backend)
	rng := rand.New(rand.NewSource(92))
	x := tensor.Randn(tensor.Shape{2, 16, 16}, rng, backend)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc.Forward(x, ForwardOptions[*cpu.CPUBackend]{})
	}
}
