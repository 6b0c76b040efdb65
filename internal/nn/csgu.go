package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// ConvolutionalSpatialGatingUnit gates half of its input with a
// depthwise temporal convolution of the other half. Input
// (batch, time, width) splits along the feature dimension; the gate
// half is normalized, convolved over time, optionally passed through
// a linear layer and the gate activation, then multiplied into the
// content half. Output width is width/2.
type ConvolutionalSpatialGatingUnit[B tensor.Backend] struct {
	norm       *LayerNorm[B]
	convWeight *Parameter[B] // (width/2, 1, kernel)
	convBias   *Parameter[B] // (width/2)
	linear     *Linear[B]    // nil unless useLinearAfterConv
	act        Module[B]
	dropout    *Dropout[B]

	width      int // input width, must be even
	kernelSize int
	backend    B
}

// CSGUConfig configures the gating unit.
type CSGUConfig struct {
	Width              int // input feature width, split in half
	KernelSize         int // odd, so the convolution preserves length
	Dropout            float32
	Activation         string // gate activation, identity by default
	UseLinearAfterConv bool
}

// NewConvolutionalSpatialGatingUnit creates the unit. The convolution
// weights start near zero with a bias of one, so the gate is initially
// close to a pass-through.
func NewConvolutionalSpatialGatingUnit[B tensor.Backend](cfg CSGUConfig, backend B) *ConvolutionalSpatialGatingUnit[B] {
	if cfg.Width <= 0 || cfg.Width%2 != 0 {
		panic(fmt.Sprintf("nn: gating unit width %d must be positive and even", cfg.Width))
	}
	if cfg.KernelSize <= 0 || cfg.KernelSize%2 == 0 {
		panic(fmt.Sprintf("nn: gating unit kernel size %d must be positive and odd", cfg.KernelSize))
	}

	half := cfg.Width / 2
	weight := tensor.New[float32](tensor.Shape{half, 1, cfg.KernelSize}, backend)
	normalInit(weight, 0, 1e-6)

	act := cfg.Activation
	if act == "" {
		act = ActIdentity
	}

	u := &ConvolutionalSpatialGatingUnit[B]{
		norm:       NewLayerNorm(half, backend),
		convWeight: NewParameter("conv_weight", weight),
		convBias:   NewParameter("conv_bias", tensor.Ones(tensor.Shape{half}, backend)),
		act:        NewActivation(act, backend),
		dropout:    NewDropout(cfg.Dropout, backend),
		width:      cfg.Width,
		kernelSize: cfg.KernelSize,
		backend:    backend,
	}
	if cfg.UseLinearAfterConv {
		u.linear = NewLinear(half, half, true, backend)
	}
	return u
}

// SetTraining switches gate dropout.
func (u *ConvolutionalSpatialGatingUnit[B]) SetTraining(training bool) {
	u.dropout.SetTraining(training)
}

// Forward gates x (batch, time, width) down to (batch, time, width/2).
func (u *ConvolutionalSpatialGatingUnit[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if shape[len(shape)-1] != u.width {
		panic(fmt.Sprintf("nn: gating unit expects width %d, got shape %v", u.width, shape))
	}

	halves := x.Chunk(2, -1)
	content, gate := halves[0], halves[1]

	gate = u.norm.Forward(gate)
	gate = u.depthwiseConv(gate)
	if u.linear != nil {
		gate = u.linear.Forward(gate)
	}
	gate = u.dropout.Forward(u.act.Forward(gate))
	return content.Mul(gate)
}

// depthwiseConv convolves each channel of (batch, time, channels)
// over time with its own kernel, preserving length.
func (u *ConvolutionalSpatialGatingUnit[B]) depthwiseConv(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	half := u.width / 2
	channelsFirst := x.Transpose(0, 2, 1)
	raw := u.backend.Conv1D(channelsFirst.Raw(), u.convWeight.Tensor.Raw(),
		1, (u.kernelSize-1)/2, half)
	out := tensor.FromRaw[float32](raw, u.backend).Transpose(0, 2, 1)
	return out.Add(u.convBias.Tensor.Unsqueeze(0).Unsqueeze(0))
}

// Parameters returns the unit's parameters.
func (u *ConvolutionalSpatialGatingUnit[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{u.convWeight, u.convBias}
	params = append(params, u.norm.Parameters()...)
	if u.linear != nil {
		params = append(params, u.linear.Parameters()...)
	}
	return params
}

// ConvolutionBranch is the local branch of a Branchformer block:
// expand the features, gate them with the spatial gating unit, project
// back to the model dimension. It sees no padding mask; frames within
// the kernel radius of padding mix with it, which callers accept.
type ConvolutionBranch[B tensor.Backend] struct {
	preProj  *Linear[B] // dModel -> linearUnits
	act      Module[B]
	csgu     *ConvolutionalSpatialGatingUnit[B]
	postProj *Linear[B] // linearUnits/2 -> dModel
}

// ConvolutionBranchConfig configures the branch.
type ConvolutionBranchConfig struct {
	DModel             int
	LinearUnits        int // expansion width, must be even
	KernelSize         int
	Dropout            float32
	Activation         string // expansion activation
	GateActivation     string
	UseLinearAfterConv bool
}

// NewConvolutionBranch creates the branch.
func NewConvolutionBranch[B tensor.Backend](cfg ConvolutionBranchConfig, backend B) *ConvolutionBranch[B] {
	if cfg.DModel <= 0 {
		panic(fmt.Sprintf("nn: invalid model dimension %d", cfg.DModel))
	}
	if cfg.LinearUnits <= 0 || cfg.LinearUnits%2 != 0 {
		panic(fmt.Sprintf("nn: convolution branch width %d must be positive and even", cfg.LinearUnits))
	}

	act := cfg.Activation
	if act == "" {
		act = ActGELU
	}

	return &ConvolutionBranch[B]{
		preProj: NewLinear(cfg.DModel, cfg.LinearUnits, true, backend),
		act:     NewActivation(act, backend),
		csgu: NewConvolutionalSpatialGatingUnit(CSGUConfig{
			Width:              cfg.LinearUnits,
			KernelSize:         cfg.KernelSize,
			Dropout:            cfg.Dropout,
			Activation:         cfg.GateActivation,
			UseLinearAfterConv: cfg.UseLinearAfterConv,
		}, backend),
		postProj: NewLinear(cfg.LinearUnits/2, cfg.DModel, true, backend),
	}
}

// SetTraining switches dropout inside the gating unit.
func (c *ConvolutionBranch[B]) SetTraining(training bool) { c.csgu.SetTraining(training) }

// Forward maps x (batch, time, dim) to (batch, time, dim).
func (c *ConvolutionBranch[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := c.act.Forward(c.preProj.Forward(x))
	out = c.csgu.Forward(out)
	return c.postProj.Forward(out)
}

// Parameters returns the branch parameters.
func (c *ConvolutionBranch[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, c.preProj.Parameters()...)
	params = append(params, c.csgu.Parameters()...)
	params = append(params, c.postProj.Parameters()...)
	return params
}
