package nn

import (
	"fmt"
	"math"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// RelPosEncXL generates Transformer-XL style relative position
// embeddings covering every key-query offset of a sequence.
type RelPosEncXL[B tensor.Backend] struct {
	dModel  int
	backend B
}

// NewRelPosEncXL creates a generator for embeddings of width dModel.
// dModel must be even.
func NewRelPosEncXL[B tensor.Backend](dModel int, backend B) *RelPosEncXL[B] {
	if dModel <= 0 || dModel%2 != 0 {
		panic(fmt.Sprintf("nn: relative position encoding requires an even width, got %d", dModel))
	}
	return &RelPosEncXL[B]{dModel: dModel, backend: backend}
}

// MakePE returns the embeddings for a sequence of length seqLen as a
// (1, 2*seqLen-1, dModel) tensor. Index j encodes the absolute offset
// |seqLen-1-j|: the center is offset zero, both halves mirror it.
func (r *RelPosEncXL[B]) MakePE(seqLen int) *tensor.Tensor[float32, B] {
	if seqLen <= 0 {
		panic(fmt.Sprintf("nn: invalid sequence length %d", seqLen))
	}

	posLen := 2*seqLen - 1
	half := r.dModel / 2

	angles := tensor.New[float32](tensor.Shape{posLen, half}, r.backend)
	angleData := angles.Data()
	logBase := math.Log(10000) / float64(r.dModel)
	for j := 0; j < posLen; j++ {
		offset := float64(seqLen - 1 - j)
		if offset < 0 {
			offset = -offset
		}
		for i := 0; i < half; i++ {
			angleData[j*half+i] = float32(offset * math.Exp(-float64(2*i)*logBase))
		}
	}

	sin := tensor.FromRaw[float32](r.backend.Sin(angles.Raw()), r.backend).Data()
	cos := tensor.FromRaw[float32](r.backend.Cos(angles.Raw()), r.backend).Data()

	pe := tensor.New[float32](tensor.Shape{1, posLen, r.dModel}, r.backend)
	data := pe.Data()
	for j := 0; j < posLen; j++ {
		row := data[j*r.dModel : (j+1)*r.dModel]
		for i := 0; i < half; i++ {
			row[2*i] = sin[j*half+i]
			row[2*i+1] = cos[j*half+i]
		}
	}
	return pe
}

// RelPosMHAXL is multi-head self-attention with Transformer-XL
// relative position encoding: content and position scores with learned
// per-head biases, combined through the relative-shift gather.
type RelPosMHAXL[B tensor.Backend] struct {
	wq, wk, wv *Linear[B] // no bias, chunks of the fused input projection
	outProj    *Linear[B]
	linearPos  *Linear[B] // no bias
	posBiasU   *Parameter[B]
	posBiasV   *Parameter[B]
	dropout    *Dropout[B]

	dModel   int
	numHeads int
	headDim  int
	backend  B
}

// NewRelPosMHAXL creates the strategy. dModel must be divisible by
// numHeads.
func NewRelPosMHAXL[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *RelPosMHAXL[B] {
	if numHeads <= 0 || dModel%numHeads != 0 {
		panic(fmt.Sprintf("nn: model dimension %d not divisible by %d heads", dModel, numHeads))
	}
	headDim := dModel / numHeads

	biasU := tensor.New[float32](tensor.Shape{numHeads, headDim}, backend)
	biasV := tensor.New[float32](tensor.Shape{numHeads, headDim}, backend)
	xavierUniform(biasU, headDim, headDim)
	xavierUniform(biasV, headDim, headDim)

	return &RelPosMHAXL[B]{
		wq:        NewLinear(dModel, dModel, false, backend),
		wk:        NewLinear(dModel, dModel, false, backend),
		wv:        NewLinear(dModel, dModel, false, backend),
		outProj:   NewLinear(dModel, dModel, true, backend),
		linearPos: NewLinear(dModel, dModel, false, backend),
		posBiasU:  NewParameter("pos_bias_u", biasU),
		posBiasV:  NewParameter("pos_bias_v", biasV),
		dropout:   NewDropout(dropout, backend),
		dModel:    dModel,
		numHeads:  numHeads,
		headDim:   headDim,
		backend:   backend,
	}
}

// OutputDim returns the model dimension.
func (r *RelPosMHAXL[B]) OutputDim() int { return r.dModel }

// NeedsPosEmbs reports that position embeddings are mandatory.
func (r *RelPosMHAXL[B]) NeedsPosEmbs() bool { return true }

// SetTraining switches attention dropout.
func (r *RelPosMHAXL[B]) SetTraining(training bool) { r.dropout.SetTraining(training) }

// relShift turns position scores (batch, heads, time, 2*time-1) into
// (batch, heads, time, time) by gathering, for query i and key j, the
// score at relative offset j-i (index j-i+time-1 in the last dim).
func relShift[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, heads, time, posLen := shape[0], shape[1], shape[2], shape[3]
	if posLen != 2*time-1 {
		panic(fmt.Sprintf("nn: relative shift expects %d position scores, got %d", 2*time-1, posLen))
	}

	out := tensor.New[float32](tensor.Shape{batch, heads, time, time}, x.Backend())
	src := x.Data()
	dst := out.Data()
	for bh := 0; bh < batch*heads; bh++ {
		srcBase := bh * time * posLen
		dstBase := bh * time * time
		for i := 0; i < time; i++ {
			for j := 0; j < time; j++ {
				dst[dstBase+i*time+j] = src[srcBase+i*posLen+j-i+time-1]
			}
		}
	}
	return out
}

// Forward runs relative-position self-attention on x (batch, time,
// dim). posEmbs must be the (1, 2*time-1, dim) output of RelPosEncXL.
// Returns the mixed sequence and the post-softmax attention weights
// (batch, heads, time, time); padded key columns are zeroed.
func (r *RelPosMHAXL[B]) Forward(x, attnMask *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], posEmbs *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	if posEmbs == nil {
		panic("nn: relative-position attention requires position embeddings")
	}
	shape := x.Shape()
	batch, time := shape[0], shape[1]
	posLen := 2*time - 1
	if !posEmbs.Shape().Equal(tensor.Shape{1, posLen, r.dModel}) {
		panic(fmt.Sprintf("nn: position embeddings shape %v, expected %v",
			posEmbs.Shape(), tensor.Shape{1, posLen, r.dModel}))
	}

	q := splitHeads(r.wq.Forward(x), r.numHeads, r.headDim)
	k := splitHeads(r.wk.Forward(x), r.numHeads, r.headDim)
	v := splitHeads(r.wv.Forward(x), r.numHeads, r.headDim)

	// (1, posLen, dim) -> (batch, heads, posLen, headDim)
	p := r.linearPos.Forward(posEmbs).
		Reshape(tensor.Shape{1, posLen, r.numHeads, r.headDim}).
		Transpose(0, 2, 1, 3).
		Expand(tensor.Shape{batch, r.numHeads, posLen, r.headDim})

	scale := float32(1 / math.Sqrt(float64(r.dModel)))
	biasU := r.posBiasU.Tensor.Unsqueeze(0).Unsqueeze(2)
	biasV := r.posBiasV.Tensor.Unsqueeze(0).Unsqueeze(2)

	qU := q.Add(biasU).MulScalar(scale)
	qV := q.Add(biasV).MulScalar(scale)

	content := qU.BatchMatMul(k.Transpose(0, 1, 3, 2))
	position := relShift(qV.BatchMatMul(p.Transpose(0, 1, 3, 2)))
	scores := content.Add(position)

	if attnMask != nil {
		scores = scores.Add(attnMask.Unsqueeze(0).Unsqueeze(0))
	}

	var padMask *tensor.Tensor[bool, B]
	if keyPadding != nil {
		padMask = keyPadding.Unsqueeze(1).Unsqueeze(1)
		scores = scores.MaskedFill(padMask, float32(math.Inf(-1)))
	}

	weights := scores.Softmax(-1)
	if padMask != nil {
		// Keep fully masked rows finite for downstream consumers.
		weights = weights.MaskedFill(padMask, 0)
	}

	ctx := r.dropout.Forward(weights).BatchMatMul(v)
	out := r.outProj.Forward(mergeHeads(ctx))
	return out, PresentWeights(weights)
}

// Parameters returns the projection and bias parameters.
func (r *RelPosMHAXL[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range []*Linear[B]{r.wq, r.wk, r.wv, r.outProj, r.linearPos} {
		params = append(params, l.Parameters()...)
	}
	return append(params, r.posBiasU, r.posBiasV)
}
