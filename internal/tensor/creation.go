package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zero values.
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return New[T](shape, backend)
}

// Ones creates a float32 tensor filled with ones.
func Ones[B Backend](shape Shape, backend B) *Tensor[float32, B] {
	t := New[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = 1
	}
	return t
}

// Full creates a float32 tensor filled with the given value.
func Full[B Backend](shape Shape, value float32, backend B) *Tensor[float32, B] {
	t := New[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with standard normal values drawn
// from rng via the Box-Muller transform.
func Randn[B Backend](shape Shape, rng *rand.Rand, backend B) *Tensor[float32, B] {
	t := New[float32](shape, backend)
	data := t.Data()
	for i := 0; i < len(data); i += 2 {
		u1 := rng.Float64()
		u2 := rng.Float64()
		for u1 == 0 {
			u1 = rng.Float64()
		}
		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		data[i] = float32(r * math.Cos(theta))
		if i+1 < len(data) {
			data[i+1] = float32(r * math.Sin(theta))
		}
	}
	return t
}
