package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// Linear applies y = x @ W^T + b over the trailing feature dimension.
// Inputs of any rank >= 2 are accepted; leading dimensions are
// flattened for the matmul and restored afterwards.
type Linear[B tensor.Backend] struct {
	Weight *Parameter[B] // (outFeatures, inFeatures)
	Bias   *Parameter[B] // (outFeatures), nil when bias is disabled

	inFeatures  int
	outFeatures int
	backend     B
}

// NewLinear creates a linear layer with Xavier-uniform weights and
// zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("nn: invalid linear dimensions %dx%d", inFeatures, outFeatures))
	}

	weight := tensor.New[float32](tensor.Shape{outFeatures, inFeatures}, backend)
	xavierUniform(weight, inFeatures, outFeatures)

	l := &Linear[B]{
		Weight:      NewParameter("weight", weight),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		backend:     backend,
	}
	if useBias {
		l.Bias = NewParameter("bias", tensor.New[float32](tensor.Shape{outFeatures}, backend))
	}
	return l
}

// InFeatures returns the input feature width.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output feature width.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// Forward applies the layer. The trailing dimension of x must equal
// inFeatures.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("nn: linear expects rank >= 2, got shape %v", shape))
	}
	if shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("nn: linear expects %d input features, got shape %v", l.inFeatures, shape))
	}

	rows := x.NumElements() / l.inFeatures
	flat := x.Reshape(tensor.Shape{rows, l.inFeatures})

	wT := l.Weight.Tensor.Transpose(1, 0)
	out := flat.MatMul(wT)
	if l.Bias != nil {
		out = out.Add(l.Bias.Tensor.Unsqueeze(0))
	}

	outShape := shape.Clone()
	outShape[len(outShape)-1] = l.outFeatures
	return out.Reshape(outShape)
}

// Parameters returns the layer's parameters.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.Bias == nil {
		return []*Parameter[B]{l.Weight}
	}
	return []*Parameter[B]{l.Weight, l.Bias}
}
