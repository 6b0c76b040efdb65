package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whettenr/speechbrain/internal/backend/cpu"
	"github.com/whettenr/speechbrain/internal/tensor"
)

func TestDropout_EvalIsIdentity(t *testing.T) {
	backend := cpu.New()

	d := NewDropout(0.5, backend)
	rng := rand.New(rand.NewSource(3))
	x := tensor.Randn(tensor.Shape{4, 8}, rng, backend)

	out := d.Forward(x)
	assert.Equal(t, x.Data(), out.Data())
}

func TestDropout_TrainingZerosAndScales(t *testing.T) {
	backend := cpu.New()

	d := NewDropout(0.5, backend)
	d.SetTraining(true)

	x := tensor.Ones(tensor.Shape{100, 100}, backend)
	out := d.Forward(x)

	zeros := 0
	for _, v := range out.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
			// Survivors are scaled by 1/(1-p) = 2.
		default:
			t.Fatalf("unexpected value %v, want 0 or 2", v)
		}
	}

	// Roughly half the elements drop.
	assert.InDelta(t, 5000, zeros, 500)
}

func TestDropout_InvalidProbabilityPanics(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewDropout(1, backend) })
	assert.Panics(t, func() { NewDropout(-0.1, backend) })
}
