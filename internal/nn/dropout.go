package nn

import (
	"fmt"
	"math/rand"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// Dropout zeroes elements with probability p during training and
// scales the survivors by 1/(1-p). In eval mode it is the identity.
// Each instance owns its random source.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
	rng      *rand.Rand
	backend  B
}

// NewDropout creates a dropout module in eval mode.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("nn: dropout probability %g outside [0, 1)", p))
	}
	return &Dropout[B]{
		p:       p,
		rng:     rand.New(rand.NewSource(rand.Int63())),
		backend: backend,
	}
}

// SetTraining switches between training and eval behavior.
func (d *Dropout[B]) SetTraining(training bool) { d.training = training }

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool { return d.training }

// Forward applies dropout.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return x
	}

	out := x.Clone()
	data := out.Data()
	scale := 1 / (1 - d.p)
	for i := range data {
		if d.rng.Float32() < d.p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// Parameters returns no parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }
