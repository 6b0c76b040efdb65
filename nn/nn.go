// Copyright 2025 SpeechBrain-Go. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for the Branchformer encoder and
// its building blocks.
//
// Example:
//
//	backend := cpu.New()
//	enc := nn.NewBranchformerEncoder(nn.EncoderConfig{
//	    NumLayers:     12,
//	    DModel:        512,
//	    NumHeads:      8,
//	    AttentionType: nn.AttnRegularMHA,
//	}, backend)
//	out := enc.Forward(x, nn.ForwardOptions[*cpu.Backend]{})
package nn

import (
	"github.com/whettenr/speechbrain/internal/nn"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// Module interface defines the common interface for tensor-to-tensor layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend)
}

// LayerNorm represents layer normalization.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a LayerNorm layer with the default epsilon.
func NewLayerNorm[B tensor.Backend](features int, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(features, backend)
}

// NewLayerNormEps creates a LayerNorm layer with an explicit epsilon.
func NewLayerNormEps[B tensor.Backend](features int, eps float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNormEps(features, eps, backend)
}

// Dropout represents inverted dropout.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout module in eval mode.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	return nn.NewDropout(p, backend)
}

// MLP represents a stack of linear layers with a shared activation.
type MLP[B tensor.Backend] = nn.MLP[B]

// NewMLP creates an MLP from a list of layer widths.
func NewMLP[B tensor.Backend](inputDim int, neurons []int, activation string, activateFinal bool, backend B) *MLP[B] {
	return nn.NewMLP(inputDim, neurons, activation, activateFinal, backend)
}

// Activations

// Activation tags accepted by NewActivation and the encoder config.
const (
	ActGELU     = nn.ActGELU
	ActReLU     = nn.ActReLU
	ActSigmoid  = nn.ActSigmoid
	ActTanh     = nn.ActTanh
	ActIdentity = nn.ActIdentity
)

// NewActivation builds an activation module from its string tag.
func NewActivation[B tensor.Backend](kind string, backend B) Module[B] {
	return nn.NewActivation(kind, backend)
}

// Global-mixing strategies

// GlobalBranch is the interface over the global-mixing strategies of a
// Branchformer layer.
type GlobalBranch[B tensor.Backend] = nn.GlobalBranch[B]

// AttentionWeights carries the optional attention artifact of a layer.
type AttentionWeights[B tensor.Backend] = nn.AttentionWeights[B]

// PresentWeights wraps an attention tensor of shape
// (batch, heads, time, time).
func PresentWeights[B tensor.Backend](w *tensor.Tensor[float32, B]) AttentionWeights[B] {
	return nn.PresentWeights(w)
}

// AbsentWeights reports that no attention artifact exists.
func AbsentWeights[B tensor.Backend]() AttentionWeights[B] {
	return nn.AbsentWeights[B]()
}

// MultiHeadAttention is standard scaled dot-product self-attention.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates self-attention with numHeads heads.
func NewMultiHeadAttention[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(dModel, numHeads, dropout, backend)
}

// RelPosEncXL generates Transformer-XL style relative position
// embeddings.
type RelPosEncXL[B tensor.Backend] = nn.RelPosEncXL[B]

// NewRelPosEncXL creates a generator for embeddings of width dModel.
func NewRelPosEncXL[B tensor.Backend](dModel int, backend B) *RelPosEncXL[B] {
	return nn.NewRelPosEncXL(dModel, backend)
}

// RelPosMHAXL is self-attention with relative position encoding.
type RelPosMHAXL[B tensor.Backend] = nn.RelPosMHAXL[B]

// NewRelPosMHAXL creates the relative-position attention strategy.
func NewRelPosMHAXL[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *RelPosMHAXL[B] {
	return nn.NewRelPosMHAXL(dModel, numHeads, dropout, backend)
}

// HyperMixing replaces attention with hypernetwork token mixing.
type HyperMixing[B tensor.Backend] = nn.HyperMixing[B]

// NewHyperMixing creates the hypernetwork mixing strategy.
func NewHyperMixing[B tensor.Backend](dModel, hypernetSize, numHeads int, backend B) *HyperMixing[B] {
	return nn.NewHyperMixing(dModel, hypernetSize, numHeads, backend)
}

// FastAttention is Fastformer-style additive attention.
type FastAttention[B tensor.Backend] = nn.FastAttention[B]

// NewFastAttention creates the additive attention strategy.
func NewFastAttention[B tensor.Backend](dModel, numHeads int, dropout float32, backend B) *FastAttention[B] {
	return nn.NewFastAttention(dModel, numHeads, dropout, backend)
}

// SummaryMixing replaces attention with local and summary projections.
type SummaryMixing[B tensor.Backend] = nn.SummaryMixing[B]

// SummaryMixingConfig configures the SummaryMixing cell.
type SummaryMixingConfig = nn.SummaryMixingConfig

// SummaryMixing modes.
const (
	ModeSummaryMixing     = nn.ModeSummaryMixing
	ModeSummaryMixingLite = nn.ModeSummaryMixingLite
)

// NewSummaryMixing creates the SummaryMixing cell.
func NewSummaryMixing[B tensor.Backend](cfg SummaryMixingConfig, backend B) *SummaryMixing[B] {
	return nn.NewSummaryMixing(cfg, backend)
}

// Branchformer

// ConvolutionalSpatialGatingUnit gates half of its input with a
// depthwise temporal convolution of the other half.
type ConvolutionalSpatialGatingUnit[B tensor.Backend] = nn.ConvolutionalSpatialGatingUnit[B]

// CSGUConfig configures the gating unit.
type CSGUConfig = nn.CSGUConfig

// NewConvolutionalSpatialGatingUnit creates the gating unit.
func NewConvolutionalSpatialGatingUnit[B tensor.Backend](cfg CSGUConfig, backend B) *ConvolutionalSpatialGatingUnit[B] {
	return nn.NewConvolutionalSpatialGatingUnit(cfg, backend)
}

// ConvolutionBranch is the local branch of a Branchformer block.
type ConvolutionBranch[B tensor.Backend] = nn.ConvolutionBranch[B]

// ConvolutionBranchConfig configures the branch.
type ConvolutionBranchConfig = nn.ConvolutionBranchConfig

// NewConvolutionBranch creates the branch.
func NewConvolutionBranch[B tensor.Backend](cfg ConvolutionBranchConfig, backend B) *ConvolutionBranch[B] {
	return nn.NewConvolutionBranch(cfg, backend)
}

// BranchformerLayer is one encoder block.
type BranchformerLayer[B tensor.Backend] = nn.BranchformerLayer[B]

// BranchformerLayerConfig configures one encoder block.
type BranchformerLayerConfig = nn.BranchformerLayerConfig

// NewBranchformerLayer builds a block around the given branches.
func NewBranchformerLayer[B tensor.Backend](cfg BranchformerLayerConfig, globalBranch GlobalBranch[B],
	convBranch *ConvolutionBranch[B], summaryMerge bool, backend B) *BranchformerLayer[B] {
	return nn.NewBranchformerLayer(cfg, globalBranch, convBranch, summaryMerge, backend)
}

// BranchformerEncoder stacks Branchformer blocks.
type BranchformerEncoder[B tensor.Backend] = nn.BranchformerEncoder[B]

// EncoderConfig configures a BranchformerEncoder.
type EncoderConfig = nn.EncoderConfig

// ForwardOptions carries the optional call-time inputs of the encoder.
type ForwardOptions[B tensor.Backend] = nn.ForwardOptions[B]

// EncoderOutput bundles the encoder's results.
type EncoderOutput[B tensor.Backend] = nn.EncoderOutput[B]

// DynChunkTrainConfig describes chunked streaming inference, which the
// encoder rejects.
type DynChunkTrainConfig = nn.DynChunkTrainConfig

// Attention strategy tags accepted by EncoderConfig.
const (
	AttnRegularMHA    = nn.AttnRegularMHA
	AttnRelPosMHAXL   = nn.AttnRelPosMHAXL
	AttnHyperMixing   = nn.AttnHyperMixing
	AttnSummaryMixing = nn.AttnSummaryMixing
	AttnFastAttention = nn.AttnFastAttention
	AttnConvOnly      = nn.AttnConvOnly
)

// NewBranchformerEncoder builds the encoder stack.
func NewBranchformerEncoder[B tensor.Backend](cfg EncoderConfig, backend B) *BranchformerEncoder[B] {
	return nn.NewBranchformerEncoder(cfg, backend)
}
