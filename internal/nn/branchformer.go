package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/parallel"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// AttentionWeights carries the optional attention artifact of a
// global branch. Strategies without an attention matrix (and the
// convolution-only layer) report Absent.
type AttentionWeights[B tensor.Backend] struct {
	weights *tensor.Tensor[float32, B]
}

// PresentWeights wraps an attention tensor of shape
// (batch, heads, time, time).
func PresentWeights[B tensor.Backend](w *tensor.Tensor[float32, B]) AttentionWeights[B] {
	return AttentionWeights[B]{weights: w}
}

// AbsentWeights reports that no attention artifact exists.
func AbsentWeights[B tensor.Backend]() AttentionWeights[B] {
	return AttentionWeights[B]{}
}

// Present reports whether an attention artifact exists.
func (a AttentionWeights[B]) Present() bool { return a.weights != nil }

// Tensor returns the attention artifact. Panics when Absent.
func (a AttentionWeights[B]) Tensor() *tensor.Tensor[float32, B] {
	if a.weights == nil {
		panic("nn: attention weights are absent")
	}
	return a.weights
}

// GlobalBranch is the closed interface over the global-mixing
// strategies of a Branchformer layer.
type GlobalBranch[B tensor.Backend] interface {
	// Forward mixes x (batch, time, dim) across time. attnMask is an
	// optional additive float mask (time, time); keyPadding is an
	// optional bool mask (batch, time) with true marking padded
	// frames; posEmbs carries relative position embeddings for the
	// strategies that need them.
	Forward(x, attnMask *tensor.Tensor[float32, B], keyPadding *tensor.Tensor[bool, B],
		posEmbs *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], AttentionWeights[B])

	// OutputDim returns the feature width of the branch output.
	OutputDim() int

	// NeedsPosEmbs reports whether Forward requires posEmbs.
	NeedsPosEmbs() bool

	// SetTraining switches dropout behavior inside the strategy.
	SetTraining(training bool)

	Parameters() []*Parameter[B]
}

// BranchformerLayer is one encoder block: a global branch and a local
// convolution branch, each behind its own pre-norm, merged by a linear
// projection into a residual update. With the global branch disabled
// (convolution-only) the block reduces to x + dropout(conv(norm(x))).
type BranchformerLayer[B tensor.Backend] struct {
	globalBranch GlobalBranch[B] // nil in convolution-only mode
	convBranch   *ConvolutionBranch[B]

	normGlobal *LayerNorm[B] // nil in convolution-only mode
	normConv   *LayerNorm[B]

	merge        *Linear[B] // nil in convolution-only mode
	mergeSummary *MLP[B]    // summary-family merge, exclusive with merge

	// One dropout per path so the branches can run concurrently
	// without sharing a random source.
	dropGlobal *Dropout[B]
	dropConv   *Dropout[B]
	dropMerge  *Dropout[B]

	dModel  int
	backend B
}

// BranchformerLayerConfig configures one encoder block.
type BranchformerLayerConfig struct {
	DModel        int
	Dropout       float32
	SummaryHidDim []int // hidden widths of the summary-family merge MLP
}

// NewBranchformerLayer builds a block around the given branches.
// globalBranch may be nil for convolution-only operation. Summary
// strategies get an MLP merge; everything else a single linear.
func NewBranchformerLayer[B tensor.Backend](cfg BranchformerLayerConfig, globalBranch GlobalBranch[B],
	convBranch *ConvolutionBranch[B], summaryMerge bool, backend B) *BranchformerLayer[B] {
	if cfg.DModel <= 0 {
		panic(fmt.Sprintf("nn: invalid model dimension %d", cfg.DModel))
	}
	if convBranch == nil {
		panic("nn: branchformer layer requires a convolution branch")
	}

	layer := &BranchformerLayer[B]{
		globalBranch: globalBranch,
		convBranch:   convBranch,
		normConv:     NewLayerNorm(cfg.DModel, backend),
		dropGlobal:   NewDropout(cfg.Dropout, backend),
		dropConv:     NewDropout(cfg.Dropout, backend),
		dropMerge:    NewDropout(cfg.Dropout, backend),
		dModel:       cfg.DModel,
		backend:      backend,
	}

	if globalBranch != nil {
		layer.normGlobal = NewLayerNorm(cfg.DModel, backend)
		mergeIn := globalBranch.OutputDim() + cfg.DModel
		if summaryMerge {
			widths := append(append([]int{}, cfg.SummaryHidDim...), cfg.DModel)
			layer.mergeSummary = NewMLP(mergeIn, widths, ActGELU, false, backend)
		} else {
			layer.merge = NewLinear(mergeIn, cfg.DModel, true, backend)
		}
	}
	return layer
}

// ConvOnly reports whether the layer runs without a global branch.
func (l *BranchformerLayer[B]) ConvOnly() bool { return l.globalBranch == nil }

// SetTraining cascades the mode switch to dropout and the branches.
func (l *BranchformerLayer[B]) SetTraining(training bool) {
	l.dropGlobal.SetTraining(training)
	l.dropConv.SetTraining(training)
	l.dropMerge.SetTraining(training)
	l.convBranch.SetTraining(training)
	if l.globalBranch != nil {
		l.globalBranch.SetTraining(training)
	}
}

// Forward runs the block on x (batch, time, dim) and returns the new
// hidden state plus the global branch's attention artifact.
func (l *BranchformerLayer[B]) Forward(x, attnMask *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], posEmbs *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	if l.globalBranch == nil {
		conv := l.convBranch.Forward(l.normConv.Forward(x))
		return x.Add(l.dropConv.Forward(conv)), AbsentWeights[B]()
	}

	var (
		globalOut *tensor.Tensor[float32, B]
		weights   AttentionWeights[B]
		convOut   *tensor.Tensor[float32, B]
	)
	parallel.Do(
		func() {
			out, w := l.globalBranch.Forward(l.normGlobal.Forward(x), attnMask, keyPadding, posEmbs)
			globalOut = l.dropGlobal.Forward(out)
			weights = w
		},
		func() {
			convOut = l.dropConv.Forward(l.convBranch.Forward(l.normConv.Forward(x)))
		},
	)

	merged := tensor.Cat([]*tensor.Tensor[float32, B]{globalOut, convOut}, -1)
	if l.mergeSummary != nil {
		merged = l.mergeSummary.Forward(merged)
	} else {
		merged = l.merge.Forward(merged)
	}
	return x.Add(l.dropMerge.Forward(merged)), weights
}

// Parameters returns all parameters of the block.
func (l *BranchformerLayer[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, l.normConv.Parameters()...)
	params = append(params, l.convBranch.Parameters()...)
	if l.globalBranch != nil {
		params = append(params, l.normGlobal.Parameters()...)
		params = append(params, l.globalBranch.Parameters()...)
		if l.mergeSummary != nil {
			params = append(params, l.mergeSummary.Parameters()...)
		} else {
			params = append(params, l.merge.Parameters()...)
		}
	}
	return params
}
