package nn

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// MultiHeadAttention is standard scaled dot-product self-attention
// with learned query, key, value and output projections.
type MultiHeadAttention[B tensor.Backend] struct {
	wq, wk, wv, wo *Linear[B]
	dropout        *Dropout[B]

	dModel   int
	numHeads int
	headDim  int
	backend  B
}

// NewMultiHeadAttention creates self-attention with numHeads heads.
// dModel must be divisible by numHeads.
func NewMultiHeadAttention[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *MultiHeadAttention[B] {
	if numHeads <= 0 || dModel%numHeads != 0 {
		panic(fmt.Sprintf("nn: model dimension %d not divisible by %d heads", dModel, numHeads))
	}
	return &MultiHeadAttention[B]{
		wq:       NewLinear(dModel, dModel, true, backend),
		wk:       NewLinear(dModel, dModel, true, backend),
		wv:       NewLinear(dModel, dModel, true, backend),
		wo:       NewLinear(dModel, dModel, true, backend),
		dropout:  NewDropout(dropout, backend),
		dModel:   dModel,
		numHeads: numHeads,
		headDim:  dModel / numHeads,
		backend:  backend,
	}
}

// OutputDim returns the model dimension.
func (m *MultiHeadAttention[B]) OutputDim() int { return m.dModel }

// NeedsPosEmbs reports that no position embeddings are required.
func (m *MultiHeadAttention[B]) NeedsPosEmbs() bool { return false }

// SetTraining switches attention dropout.
func (m *MultiHeadAttention[B]) SetTraining(training bool) { m.dropout.SetTraining(training) }

// splitHeads reshapes (batch, time, dModel) to
// (batch, heads, time, headDim).
func splitHeads[B tensor.Backend](x *tensor.Tensor[float32, B], numHeads, headDim int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, time := shape[0], shape[1]
	return x.Reshape(tensor.Shape{batch, time, numHeads, headDim}).Transpose(0, 2, 1, 3)
}

// mergeHeads reshapes (batch, heads, time, headDim) back to
// (batch, time, dModel).
func mergeHeads[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, heads, time, headDim := shape[0], shape[1], shape[2], shape[3]
	return x.Transpose(0, 2, 1, 3).Reshape(tensor.Shape{batch, time, heads * headDim})
}

// Forward runs self-attention on x (batch, time, dim). attnMask is an
// optional additive (time, time) mask; keyPadding an optional bool
// (batch, time) mask with true marking padded frames. posEmbs is
// ignored. Returns the mixed sequence and per-head attention weights
// (batch, heads, time, time).
func (m *MultiHeadAttention[B]) Forward(x, attnMask *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], _ *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	q := splitHeads(m.wq.Forward(x), m.numHeads, m.headDim)
	k := splitHeads(m.wk.Forward(x), m.numHeads, m.headDim)
	v := splitHeads(m.wv.Forward(x), m.numHeads, m.headDim)

	scale := float32(1 / math.Sqrt(float64(m.headDim)))
	scores := q.BatchMatMul(k.Transpose(0, 1, 3, 2)).MulScalar(scale)

	if attnMask != nil {
		scores = scores.Add(attnMask.Unsqueeze(0).Unsqueeze(0))
	}
	if keyPadding != nil {
		scores = scores.MaskedFill(keyPadding.Unsqueeze(1).Unsqueeze(1), float32(math.Inf(-1)))
	}

	weights := scores.Softmax(-1)
	ctx := m.dropout.Forward(weights).BatchMatMul(v)
	out := m.wo.Forward(mergeHeads(ctx))
	return out, PresentWeights(weights)
}

// Parameters returns the projection parameters.
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range []*Linear[B]{m.wq, m.wk, m.wv, m.wo} {
		params = append(params, l.Parameters()...)
	}
	return params
}
