package nn

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// FastAttention is Fastformer-style additive attention. Instead of
// pairwise scores it pools the sequence twice into per-head summaries
// (query summary, then key summary conditioned on it) and shares the
// result with every position, giving linear time in sequence length.
type FastAttention[B tensor.Backend] struct {
	queryProj *Linear[B]
	queryAttn *Linear[B] // per-head additive scores
	keyProj   *Linear[B]
	keyAttn   *Linear[B]
	outProj   *Linear[B]
	dropout   *Dropout[B]

	dModel   int
	numHeads int
	headDim  int
	backend  B
}

// NewFastAttention creates the strategy. dModel must be divisible by
// numHeads.
func NewFastAttention[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *FastAttention[B] {
	if numHeads <= 0 || dModel%numHeads != 0 {
		panic(fmt.Sprintf("nn: model dimension %d not divisible by %d heads", dModel, numHeads))
	}

	f := &FastAttention[B]{
		queryProj: NewLinear(dModel, dModel, true, backend),
		queryAttn: NewLinear(dModel, numHeads, true, backend),
		keyProj:   NewLinear(dModel, dModel, true, backend),
		keyAttn:   NewLinear(dModel, numHeads, true, backend),
		outProj:   NewLinear(dModel, dModel, true, backend),
		dropout:   NewDropout(dropout, backend),
		dModel:    dModel,
		numHeads:  numHeads,
		headDim:   dModel / numHeads,
		backend:   backend,
	}
	for _, l := range []*Linear[B]{f.queryProj, f.queryAttn, f.keyProj, f.keyAttn, f.outProj} {
		normalInit(l.Weight.Tensor, 0, 0.02)
	}
	return f
}

// OutputDim returns the model dimension.
func (f *FastAttention[B]) OutputDim() int { return f.dModel }

// NeedsPosEmbs reports that no position embeddings are required.
func (f *FastAttention[B]) NeedsPosEmbs() bool { return false }

// SetTraining switches pooling dropout.
func (f *FastAttention[B]) SetTraining(training bool) { f.dropout.SetTraining(training) }

// linearAttn pools content (batch, time, dim) into one vector per head
// using additive scores (batch, time, heads). Returns the pooled
// (batch, heads, 1, headDim) summary and the softmax distribution
// (batch, heads, time).
func (f *FastAttention[B]) linearAttn(scores, content *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	s := scores.Transpose(0, 2, 1).MulScalar(float32(1 / math.Sqrt(float64(f.headDim))))

	var padMask *tensor.Tensor[bool, B]
	if keyPadding != nil {
		padMask = keyPadding.Unsqueeze(1)
		s = s.MaskedFill(padMask, float32(math.Inf(-1)))
	}
	attn := s.Softmax(-1)
	if padMask != nil {
		attn = attn.MaskedFill(padMask, 0)
	}

	pooled := attn.Unsqueeze(2).BatchMatMul(splitHeads(content, f.numHeads, f.headDim))
	return f.dropout.Forward(pooled), attn
}

// Forward runs additive attention on x (batch, time, dim). attnMask
// and posEmbs are ignored. The artifact is the key-summary softmax
// distribution broadcast across query positions to
// (batch, heads, time, time).
func (f *FastAttention[B]) Forward(x, _ *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], _ *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	shape := x.Shape()
	batch, time := shape[0], shape[1]

	query := f.queryProj.Forward(x)
	querySummary, _ := f.linearAttn(f.queryAttn.Forward(query), query, keyPadding)
	// (batch, heads, 1, headDim) -> (batch, 1, dim), broadcast over time.
	queryGlobal := mergeHeads(querySummary)

	keyContent := f.keyProj.Forward(x).Mul(queryGlobal)
	keySummary, keyAttn := f.linearAttn(f.keyAttn.Forward(keyContent), keyContent, keyPadding)

	value := keySummary.Mul(splitHeads(query, f.numHeads, f.headDim))
	out := f.outProj.Forward(mergeHeads(value)).Add(query)

	weights := keyAttn.Unsqueeze(2).Expand(tensor.Shape{batch, f.numHeads, time, time})
	return out, PresentWeights(weights)
}

// Parameters returns the projection parameters.
func (f *FastAttention[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range []*Linear[B]{f.queryProj, f.queryAttn, f.keyProj, f.keyAttn, f.outProj} {
		params = append(params, l.Parameters()...)
	}
	return params
}
