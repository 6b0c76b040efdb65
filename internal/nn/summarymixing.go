package nn

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/tensor"
)

// SummaryMixing modes.
const (
	ModeSummaryMixing     = "SummaryMixing"
	ModeSummaryMixingLite = "SummaryMixing-lite"
)

// SummaryMixing replaces attention with two projections: a per-frame
// local transformation and a sequence-wide summary, the masked mean of
// a second projection, broadcast back to every frame. The full mode
// concatenates both; the lite mode keeps only the summary.
type SummaryMixing[B tensor.Backend] struct {
	localProj   *MLP[B] // nil in lite mode
	summaryProj *MLP[B]

	mode      string
	outputDim int
	backend   B
}

// SummaryMixingConfig configures the cell.
type SummaryMixingConfig struct {
	DModel          int
	Mode            string // ModeSummaryMixing or ModeSummaryMixingLite
	LocalProjHidDim []int
	LocalProjOutDim int
	SummaryHidDim   []int
	SummaryOutDim   int
	Activation      string
}

// NewSummaryMixing creates the cell. Panics on an unknown mode.
func NewSummaryMixing[B tensor.Backend](cfg SummaryMixingConfig, backend B) *SummaryMixing[B] {
	if cfg.DModel <= 0 {
		panic(fmt.Sprintf("nn: invalid model dimension %d", cfg.DModel))
	}

	s := &SummaryMixing[B]{mode: cfg.Mode, backend: backend}

	summaryWidths := append(append([]int{}, cfg.SummaryHidDim...), cfg.SummaryOutDim)
	s.summaryProj = NewMLP(cfg.DModel, summaryWidths, cfg.Activation, true, backend)

	switch cfg.Mode {
	case ModeSummaryMixing:
		localWidths := append(append([]int{}, cfg.LocalProjHidDim...), cfg.LocalProjOutDim)
		s.localProj = NewMLP(cfg.DModel, localWidths, cfg.Activation, true, backend)
		s.outputDim = cfg.LocalProjOutDim + cfg.SummaryOutDim
	case ModeSummaryMixingLite:
		s.outputDim = cfg.SummaryOutDim
	default:
		panic(fmt.Sprintf("nn: unknown summary mixing mode %q", cfg.Mode))
	}
	return s
}

// OutputDim returns the branch output width: local plus summary in
// full mode, summary alone in lite mode.
func (s *SummaryMixing[B]) OutputDim() int { return s.outputDim }

// NeedsPosEmbs reports that no position embeddings are required.
func (s *SummaryMixing[B]) NeedsPosEmbs() bool { return false }

// SetTraining is a no-op; the cell carries no dropout.
func (s *SummaryMixing[B]) SetTraining(bool) {}

// Forward mixes x (batch, time, dim). attnMask and posEmbs are
// ignored; keyPadding excludes padded frames from the summary mean.
// The cell computes no attention matrix, so the artifact is Absent.
func (s *SummaryMixing[B]) Forward(x, _ *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], _ *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], AttentionWeights[B]) {
	shape := x.Shape()
	batch, time := shape[0], shape[1]

	summary := s.summaryProj.Forward(x)
	mean := s.maskedMean(summary, keyPadding, batch, time)
	broadcast := mean.Expand(tensor.Shape{batch, time, s.summaryProj.OutputDim()})

	if s.mode == ModeSummaryMixingLite {
		return broadcast, AbsentWeights[B]()
	}

	local := s.localProj.Forward(x)
	out := tensor.Cat([]*tensor.Tensor[float32, B]{local, broadcast}, -1)
	return out, AbsentWeights[B]()
}

// maskedMean averages summary (batch, time, width) over the valid
// frames of each sequence, returning (batch, 1, width).
func (s *SummaryMixing[B]) maskedMean(summary *tensor.Tensor[float32, B],
	keyPadding *tensor.Tensor[bool, B], batch, time int,
) *tensor.Tensor[float32, B] {
	if keyPadding == nil {
		return summary.MeanDim(1, true)
	}

	padMask := keyPadding.Unsqueeze(2)
	sum := summary.MaskedFill(padMask, 0).SumDim(1, true)

	counts := tensor.New[float32](tensor.Shape{batch, 1, 1}, s.backend)
	countData := counts.Data()
	maskData := keyPadding.Data()
	for b := 0; b < batch; b++ {
		valid := 0
		for t := 0; t < time; t++ {
			if !maskData[b*time+t] {
				valid++
			}
		}
		if valid == 0 {
			// Fully padded sequences average over all frames to stay finite.
			valid = time
		}
		countData[b] = float32(valid)
	}
	return sum.Div(counts)
}

// Parameters returns the projection parameters.
func (s *SummaryMixing[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	if s.localProj != nil {
		params = append(params, s.localProj.Parameters()...)
	}
	return append(params, s.summaryProj.Parameters()...)
}
