package nn

import (
	"math"
	"math/rand"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// xavierUniform fills t with values from U(-bound, bound) where
// bound = sqrt(6 / (fanIn + fanOut)).
func xavierUniform[B tensor.Backend](t *tensor.Tensor[float32, B], fanIn, fanOut int) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = float32((rand.Float64()*2 - 1) * bound)
	}
}

// normalInit fills t with values from N(mean, std^2).
func normalInit[B tensor.Backend](t *tensor.Tensor[float32, B], mean, std float64) {
	data := t.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64()*std + mean)
	}
}
