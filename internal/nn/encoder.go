package nn

import (
	"fmt"
	"math/rand"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// Attention strategy tags accepted by EncoderConfig.
const (
	AttnRegularMHA    = "regularMHA"
	AttnRelPosMHAXL   = "RelPosMHAXL"
	AttnHyperMixing   = "hypermixing"
	AttnSummaryMixing = "SummaryMixing"
	AttnFastAttention = "fastattention"
	AttnConvOnly      = "cnnonly"
)

// DynChunkTrainConfig describes chunked streaming inference. The
// encoder does not support it; passing a non-nil config panics.
type DynChunkTrainConfig struct {
	ChunkSize   int
	LeftContext int
}

// EncoderConfig configures a BranchformerEncoder. Zero fields take
// defaults (see NewBranchformerEncoder).
type EncoderConfig struct {
	NumLayers int
	DModel    int
	NumHeads  int

	AttentionType string // one of the Attn* tags
	Mode          string // SummaryMixing variant, full or lite

	KernelSize         int
	CSGULinearUnits    int
	UseLinearAfterConv bool
	Activation         string
	GateActivation     string
	Dropout            float32

	// Summary-mixing family projections. LocalProjHidDim[0] also
	// sizes the hypernetwork for hypermixing.
	LocalProjHidDim []int
	LocalProjOutDim int
	SummaryHidDim   []int
	SummaryOutDim   int

	LayerDropProb      float32
	OutputHiddenStates bool
	Seed               int64
}

// ForwardOptions carries the optional call-time inputs of the encoder.
type ForwardOptions[B tensor.Backend] struct {
	// AttnMask is an additive float (time, time) mask.
	AttnMask *tensor.Tensor[float32, B]
	// KeyPadding is a bool (batch, time) mask, true for padded frames.
	// The convolution branch ignores it; see the package notes.
	KeyPadding *tensor.Tensor[bool, B]
	// PosEmbs is the (1, 2*time-1, dim) relative position embedding
	// tensor, mandatory for RelPosMHAXL.
	PosEmbs *tensor.Tensor[float32, B]
	// DynChunkTrain must be nil; streaming is unsupported.
	DynChunkTrain *DynChunkTrainConfig
}

// EncoderOutput bundles the encoder's results.
type EncoderOutput[B tensor.Backend] struct {
	// Output is the final normalized sequence (batch, time, dim).
	Output *tensor.Tensor[float32, B]
	// Attentions holds one artifact per executed layer.
	Attentions []AttentionWeights[B]
	// HiddenStates holds the raw input followed by each executed
	// layer's output. Nil unless OutputHiddenStates is set.
	HiddenStates []*tensor.Tensor[float32, B]
}

// BranchformerEncoder stacks Branchformer blocks with stochastic layer
// drop, optional hidden-state capture and a shared final norm.
type BranchformerEncoder[B tensor.Backend] struct {
	layers    []*BranchformerLayer[B]
	finalNorm *LayerNorm[B]
	cfg       EncoderConfig
	rng       *rand.Rand
	training  bool
	backend   B
}

// NewBranchformerEncoder builds the stack. Defaults mirror the usual
// speech recipe: 3072 convolution units, kernel 31, GELU expansion
// with an identity gate, 512-wide local and 1024-wide summary
// projections.
func NewBranchformerEncoder[B tensor.Backend](cfg EncoderConfig, backend B) *BranchformerEncoder[B] {
	if cfg.NumLayers <= 0 {
		panic(fmt.Sprintf("nn: invalid layer count %d", cfg.NumLayers))
	}
	if cfg.DModel <= 0 {
		panic(fmt.Sprintf("nn: invalid model dimension %d", cfg.DModel))
	}
	if cfg.LayerDropProb < 0 || cfg.LayerDropProb >= 1 {
		panic(fmt.Sprintf("nn: layer drop probability %g outside [0, 1)", cfg.LayerDropProb))
	}

	if cfg.NumHeads == 0 {
		cfg.NumHeads = 4
	}
	if cfg.KernelSize == 0 {
		cfg.KernelSize = 31
	}
	if cfg.CSGULinearUnits == 0 {
		cfg.CSGULinearUnits = 3072
	}
	if cfg.Activation == "" {
		cfg.Activation = ActGELU
	}
	if cfg.GateActivation == "" {
		cfg.GateActivation = ActIdentity
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSummaryMixing
	}
	if cfg.LocalProjHidDim == nil {
		cfg.LocalProjHidDim = []int{512}
	}
	if cfg.LocalProjOutDim == 0 {
		cfg.LocalProjOutDim = 512
	}
	if cfg.SummaryHidDim == nil {
		cfg.SummaryHidDim = []int{1024}
	}
	if cfg.SummaryOutDim == 0 {
		cfg.SummaryOutDim = 1024
	}

	enc := &BranchformerEncoder[B]{
		layers:    make([]*BranchformerLayer[B], cfg.NumLayers),
		finalNorm: NewLayerNormEps(cfg.DModel, 1e-6, backend),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		backend:   backend,
	}

	layerCfg := BranchformerLayerConfig{
		DModel:        cfg.DModel,
		Dropout:       cfg.Dropout,
		SummaryHidDim: cfg.SummaryHidDim,
	}
	for i := range enc.layers {
		branch, summaryMerge := newGlobalBranch(cfg, backend)
		conv := NewConvolutionBranch(ConvolutionBranchConfig{
			DModel:             cfg.DModel,
			LinearUnits:        cfg.CSGULinearUnits,
			KernelSize:         cfg.KernelSize,
			Dropout:            cfg.Dropout,
			Activation:         cfg.Activation,
			GateActivation:     cfg.GateActivation,
			UseLinearAfterConv: cfg.UseLinearAfterConv,
		}, backend)
		enc.layers[i] = NewBranchformerLayer(layerCfg, branch, conv, summaryMerge, backend)
	}
	return enc
}

// newGlobalBranch resolves the strategy tag. Returns a nil branch for
// convolution-only stacks and reports whether the merge projection is
// the summary-family MLP.
func newGlobalBranch[B tensor.Backend](cfg EncoderConfig, backend B) (GlobalBranch[B], bool) {
	switch cfg.AttentionType {
	case AttnRegularMHA:
		return NewMultiHeadAttention(cfg.DModel, cfg.NumHeads, cfg.Dropout, backend), false
	case AttnRelPosMHAXL:
		return NewRelPosMHAXL(cfg.DModel, cfg.NumHeads, cfg.Dropout, backend), false
	case AttnHyperMixing:
		return NewHyperMixing(cfg.DModel, cfg.LocalProjHidDim[0], cfg.NumHeads, backend), false
	case AttnFastAttention:
		return NewFastAttention(cfg.DModel, cfg.NumHeads, cfg.Dropout, backend), false
	case AttnSummaryMixing:
		return NewSummaryMixing(SummaryMixingConfig{
			DModel:          cfg.DModel,
			Mode:            cfg.Mode,
			LocalProjHidDim: cfg.LocalProjHidDim,
			LocalProjOutDim: cfg.LocalProjOutDim,
			SummaryHidDim:   cfg.SummaryHidDim,
			SummaryOutDim:   cfg.SummaryOutDim,
			Activation:      cfg.Activation,
		}, backend), true
	case AttnConvOnly:
		return nil, false
	default:
		panic(fmt.Sprintf("nn: unknown attention type %q", cfg.AttentionType))
	}
}

// NumLayers returns the stack depth.
func (e *BranchformerEncoder[B]) NumLayers() int { return len(e.layers) }

// Training reports whether the encoder is in training mode.
func (e *BranchformerEncoder[B]) Training() bool { return e.training }

// SetTraining switches training behavior (layer drop, dropout) for
// the whole stack.
func (e *BranchformerEncoder[B]) SetTraining(training bool) {
	e.training = training
	for _, layer := range e.layers {
		layer.SetTraining(training)
	}
}

// Forward runs the stack on x (batch, time, dim).
//
// With layer drop active a layer is skipped wholesale: the sequence
// tensor flows to the next layer unchanged and the skipped layer
// contributes no attention artifact or hidden state.
func (e *BranchformerEncoder[B]) Forward(x *tensor.Tensor[float32, B], opts ForwardOptions[B]) EncoderOutput[B] {
	if opts.DynChunkTrain != nil {
		panic("nn: streaming inference is not supported")
	}
	if len(e.layers) > 0 && e.layers[0].globalBranch != nil &&
		e.layers[0].globalBranch.NeedsPosEmbs() && opts.PosEmbs == nil {
		panic("nn: attention type requires position embeddings at every forward call")
	}
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != e.cfg.DModel {
		panic(fmt.Sprintf("nn: encoder expects (batch, time, %d) input, got %v", e.cfg.DModel, shape))
	}

	// One uniform draw per layer per call, from the stack's own
	// source, drawn regardless of mode so seeded streams line up.
	var keepProbs []float32
	if e.cfg.LayerDropProb > 0 {
		keepProbs = make([]float32, len(e.layers))
		for i := range keepProbs {
			keepProbs[i] = e.rng.Float32()
		}
	}

	out := EncoderOutput[B]{}
	if e.cfg.OutputHiddenStates {
		out.HiddenStates = append(out.HiddenStates, x)
	}

	current := x
	for i, layer := range e.layers {
		if e.training && keepProbs != nil && keepProbs[i] <= e.cfg.LayerDropProb {
			continue
		}
		next, weights := layer.Forward(current, opts.AttnMask, opts.KeyPadding, opts.PosEmbs)
		current = next
		out.Attentions = append(out.Attentions, weights)
		if e.cfg.OutputHiddenStates {
			out.HiddenStates = append(out.HiddenStates, current)
		}
	}

	out.Output = e.finalNorm.Forward(current)
	return out
}

// Parameters returns every parameter of the stack.
func (e *BranchformerEncoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range e.layers {
		params = append(params, layer.Parameters()...)
	}
	return append(params, e.finalNorm.Parameters()...)
}
