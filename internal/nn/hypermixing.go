package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// HyperMixing replaces attention with an MLP that mixes tokens across
// time. A hypernetwork generates the mixing weights per position, so
// the token-mixing layer adapts to the input instead of being fixed.
type HyperMixing[B tensor.Backend] struct {
	w1Gen *Linear[B] // (dim) -> (hypernetSize), reshaped per head
	w2Gen *Linear[B]
	act   Module[B]
	norm  *LayerNorm[B]

	dModel       int
	numHeads     int
	headDim      int
	hypernetSize int
	mixDim       int // hypernetSize / numHeads
	backend      B
}

// NewHyperMixing creates the strategy. Both dModel and hypernetSize
// must be divisible by numHeads.
func NewHyperMixing[B tensor.Backend](dModel, hypernetSize, numHeads int, backend B) *HyperMixing[B] {
	if numHeads <= 0 || dModel%numHeads != 0 {
		panic(fmt.Sprintf("nn: model dimension %d not divisible by %d heads", dModel, numHeads))
	}
	if hypernetSize <= 0 || hypernetSize%numHeads != 0 {
		panic(fmt.Sprintf("nn: hypernetwork size %d not divisible by %d heads", hypernetSize, numHeads))
	}
	return &HyperMixing[B]{
		w1Gen:        NewLinear(dModel, hypernetSize, true, backend),
		w2Gen:        NewLinear(dModel, hypernetSize, true, backend),
		act:          NewGELU(backend),
		norm:         NewLayerNorm(dModel, backend),
		dModel:       dModel,
		numHeads:     numHeads,
		headDim:      dModel / numHeads,
		hypernetSize: hypernetSize,
		mixDim:       hypernetSize / numHeads,
		backend:      backend,
	}
}

// OutputDim returns the model dimension.
func (h *HyperMixing[B]) OutputDim() int { return h.dModel }

// NeedsPosEmbs reports that no position embeddings are required.
func (h *HyperMixing[B]) NeedsPosEmbs() bool { return false }

// SetTraining is a no-op; the strategy carries no dropout.
func (h *HyperMixing[B]) SetTraining(bool) {}

// Forward mixes x (batch, time, dim) across time. attnMask and
// posEmbs are ignored. HyperMixing computes no attention matrix; the
// artifact is a zero tensor (batch, heads, time, time) kept for
// interface symmetry with the attention strategies.
func (h *HyperMixing[B]) Forward(x, _ *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], _ *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	shape := x.Shape()
	batch, time := shape[0], shape[1]

	// (batch, time, hypernetSize) -> (batch, heads, time, mixDim)
	w1 := splitHeads(h.w1Gen.Forward(x), h.numHeads, h.mixDim)
	w2 := splitHeads(h.w2Gen.Forward(x), h.numHeads, h.mixDim)

	if keyPadding != nil {
		// Padded positions contribute nothing to the mixing weights.
		padMask := keyPadding.Unsqueeze(1).Unsqueeze(3)
		w1 = w1.MaskedFill(padMask, 0)
		w2 = w2.MaskedFill(padMask, 0)
	}

	xh := splitHeads(x, h.numHeads, h.headDim)
	hidden := h.act.Forward(w1.Transpose(0, 1, 3, 2).BatchMatMul(xh))
	mixed := w2.BatchMatMul(hidden)

	out := h.norm.Forward(mergeHeads(mixed))
	weights := tensor.New[float32](tensor.Shape{batch, h.numHeads, time, time}, h.backend)
	return out, PresentWeights(weights)
}

// Parameters returns the generator and norm parameters.
func (h *HyperMixing[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, h.w1Gen.Parameters()...)
	params = append(params, h.w2Gen.Parameters()...)
	params = append(params, h.norm.Parameters()...)
	return params
}
