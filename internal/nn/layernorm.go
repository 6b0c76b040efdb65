package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// LayerNorm normalizes the trailing feature dimension to zero mean and
// unit variance, then applies a learned affine transform.
type LayerNorm[B tensor.Backend] struct {
	Gamma *Parameter[B] // (features), initialized to ones
	Beta  *Parameter[B] // (features), initialized to zeros

	features int
	eps      float32
	backend  B
}

// NewLayerNorm creates a layer norm over the given feature width with
// the default epsilon 1e-5.
func NewLayerNorm[B tensor.Backend](features int, backend B) *LayerNorm[B] {
	return NewLayerNormEps(features, 1e-5, backend)
}

// NewLayerNormEps creates a layer norm with an explicit epsilon.
// The encoder's final norm uses 1e-6.
func NewLayerNormEps[B tensor.Backend](features int, eps float32, backend B) *LayerNorm[B] {
	if features <= 0 {
		panic(fmt.Sprintf("nn: invalid layernorm width %d", features))
	}
	if eps <= 0 {
		panic(fmt.Sprintf("nn: invalid layernorm eps %g", eps))
	}
	return &LayerNorm[B]{
		Gamma:    NewParameter("gamma", tensor.Ones(tensor.Shape{features}, backend)),
		Beta:     NewParameter("beta", tensor.New[float32](tensor.Shape{features}, backend)),
		features: features,
		eps:      eps,
		backend:  backend,
	}
}

// Forward normalizes x over its trailing dimension.
func (ln *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if shape[len(shape)-1] != ln.features {
		panic(fmt.Sprintf("nn: layernorm expects %d features, got shape %v", ln.features, shape))
	}

	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)
	invStd := variance.AddScalar(ln.eps).Rsqrt()

	normalized := centered.Mul(invStd)
	return normalized.Mul(ln.broadcastAffine(ln.Gamma, len(shape))).
		Add(ln.broadcastAffine(ln.Beta, len(shape)))
}

func (ln *LayerNorm[B]) broadcastAffine(p *Parameter[B], rank int) *tensor.Tensor[float32, B] {
	t := p.Tensor
	for i := 0; i < rank-1; i++ {
		t = t.Unsqueeze(0)
	}
	return t
}

// Parameters returns gamma and beta.
func (ln *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{ln.Gamma, ln.Beta}
}
