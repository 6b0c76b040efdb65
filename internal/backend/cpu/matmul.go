package cpu

import (
	"fmt"

	"github.com/whettenr/speechbrain/internal/parallel"
	"github.com/whettenr/speechbrain/internal/tensor"
)

// MatMul multiplies two 2D float32 tensors: (m, k) x (k, n) -> (m, n).
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: matmul requires float32 operands, got %s and %s", a.DType(), b.DType()))
	}
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul requires 2D tensors, got %v and %v", aShape, bShape))
	}
	m, k := aShape[0], aShape[1]
	k2, n := bShape[0], bShape[1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: matmul inner dimensions mismatch: %v x %v", aShape, bShape))
	}

	out := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, tensor.CPU)
	av, bv, dst := a.Float32s(), b.Float32s(), out.Float32s()

	parallel.For(m, func(i int) {
		rowOut := dst[i*n : (i+1)*n]
		rowA := av[i*k : (i+1)*k]
		for p := 0; p < k; p++ {
			aip := rowA[p]
			if aip == 0 {
				continue
			}
			rowB := bv[p*n : (p+1)*n]
			for j := range rowOut {
				rowOut[j] += aip * rowB[j]
			}
		}
	}, c.parallel)
	return out
}

// BatchMatMul multiplies two tensors with identical leading batch
// dimensions over their trailing two dims:
// (..., m, k) x (..., k, n) -> (..., m, n).
func (c *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: batchmatmul requires float32 operands, got %s and %s", a.DType(), b.DType()))
	}
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) < 3 || len(aShape) != len(bShape) {
		panic(fmt.Sprintf("cpu: batchmatmul requires equal ranks >= 3, got %v and %v", aShape, bShape))
	}
	for d := 0; d < len(aShape)-2; d++ {
		if aShape[d] != bShape[d] {
			panic(fmt.Sprintf("cpu: batchmatmul batch dims mismatch: %v vs %v", aShape, bShape))
		}
	}

	m, k := aShape[len(aShape)-2], aShape[len(aShape)-1]
	k2, n := bShape[len(bShape)-2], bShape[len(bShape)-1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: batchmatmul inner dimensions mismatch: %v x %v", aShape, bShape))
	}

	batch := 1
	for d := 0; d < len(aShape)-2; d++ {
		batch *= aShape[d]
	}

	outShape := aShape.Clone()
	outShape[len(outShape)-1] = n
	out := tensor.NewRaw(outShape, tensor.Float32, tensor.CPU)
	av, bv, dst := a.Float32s(), b.Float32s(), out.Float32s()

	parallel.For(batch, func(bi int) {
		aBase := bi * m * k
		bBase := bi * k * n
		oBase := bi * m * n
		for i := 0; i < m; i++ {
			rowOut := dst[oBase+i*n : oBase+(i+1)*n]
			rowA := av[aBase+i*k : aBase+(i+1)*k]
			for p := 0; p < k; p++ {
				aip := rowA[p]
				if aip == 0 {
					continue
				}
				rowB := bv[bBase+p*n : bBase+(p+1)*n]
				for j := range rowOut {
					rowOut[j] += aip * rowB[j]
				}
			}
		}
	}, c.parallel)
	return out
}
