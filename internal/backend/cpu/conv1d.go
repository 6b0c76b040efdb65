package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/parallel"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// Conv1D applies a grouped 1D convolution (cross-correlation, matching
// the usual deep-learning convention).
//
// input is (batch, inChannels, time), kernel is
// (outChannels, inChannels/groups, kernelSize). Depthwise convolution
// is groups == inChannels == outChannels with a (C, 1, K) kernel.
func (c *CPUBackend) Conv1D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: conv1d requires float32, got %s and %s", input.DType(), kernel.DType()))
	}
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 3 || len(kShape) != 3 {
		panic(fmt.Sprintf("cpu: conv1d requires 3D input and kernel, got %v and %v", inShape, kShape))
	}
	if stride < 1 || padding < 0 || groups < 1 {
		panic(fmt.Sprintf("cpu: conv1d invalid stride=%d padding=%d groups=%d", stride, padding, groups))
	}

	batch, inCh, time := inShape[0], inShape[1], inShape[2]
	outCh, kIn, kSize := kShape[0], kShape[1], kShape[2]
	if inCh%groups != 0 || outCh%groups != 0 {
		panic(fmt.Sprintf("cpu: conv1d channels %d/%d not divisible by groups %d", inCh, outCh, groups))
	}
	if kIn != inCh/groups {
		panic(fmt.Sprintf("cpu: conv1d kernel expects %d input channels per group, input has %d", kIn, inCh/groups))
	}

	outTime := (time+2*padding-kSize)/stride + 1
	if outTime < 1 {
		panic(fmt.Sprintf("cpu: conv1d output length %d < 1 (time=%d padding=%d kernel=%d)", outTime, time, padding, kSize))
	}

	out := tensor.NewRaw(tensor.Shape{batch, outCh, outTime}, tensor.Float32, tensor.CPU)
	src, ker, dst := input.Float32s(), kernel.Float32s(), out.Float32s()
	chPerGroup := outCh / groups

	parallel.ForBatch(batch, outCh, func(b, oc int) {
		g := oc / chPerGroup
		outRow := dst[(b*outCh+oc)*outTime : (b*outCh+oc+1)*outTime]
		for ot := 0; ot < outTime; ot++ {
			var sum float32
			start := ot*stride - padding
			for ic := 0; ic < kIn; ic++ {
				inRow := src[(b*inCh+g*kIn+ic)*time : (b*inCh+g*kIn+ic+1)*time]
				kRow := ker[(oc*kIn+ic)*kSize : (oc*kIn+ic+1)*kSize]
				for kt := 0; kt < kSize; kt++ {
					t := start + kt
					if t < 0 || t >= time {
						continue
					}
					sum += inRow[t] * kRow[kt]
				}
			}
			outRow[ot] = sum
		}
	}, c.parallel)
	return out
}
