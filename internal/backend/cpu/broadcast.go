package cpu

import "github.com/whettenr/speechbrain/internal/tensor"

// broadcastStrides returns strides for indexing src as if it had
// outShape: dimensions of size 1 (or missing on the left) get stride 0
// so every output coordinate maps back into src.
func broadcastStrides(src, outShape tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(outShape))
	offset := len(outShape) - len(src)
	for d := range outShape {
		sd := d - offset
		if sd < 0 || src[sd] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[sd]
		}
	}
	return strides
}

// broadcastSourceIndex maps a flat output index to the flat source
// index under broadcast strides.
func broadcastSourceIndex(flat int, outStrides, srcStrides []int, rank int) int {
	idx := 0
	rem := flat
	for d := 0; d < rank; d++ {
		coord := rem / outStrides[d]
		rem %= outStrides[d]
		idx += coord * srcStrides[d]
	}
	return idx
}
