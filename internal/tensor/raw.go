package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents where tensor data lives.
type Device int

// Supported devices.
const (
	CPU Device = iota
)

// String returns a human-readable name for the device.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// RawTensor is an untyped tensor: a flat byte buffer plus shape, dtype
// and device metadata. Backends operate on RawTensor; the generic
// Tensor[T, B] wrapper restores compile-time element typing on top.
type RawTensor struct {
	data   []byte
	shape  Shape
	dtype  DataType
	device Device
}

// NewRaw creates a RawTensor with an uninitialized (zeroed) buffer.
func NewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: invalid shape %v: %v", shape, err))
	}
	size := shape.NumElements() * dtype.Size()
	return &RawTensor{
		data:   make([]byte, size),
		shape:  shape.Clone(),
		dtype:  dtype,
		device: device,
	}
}

// Shape returns the tensor's shape. Callers must not mutate it.
func (rt *RawTensor) Shape() Shape { return rt.shape }

// DType returns the tensor's data type.
func (rt *RawTensor) DType() DataType { return rt.dtype }

// Device returns the device the tensor lives on.
func (rt *RawTensor) Device() Device { return rt.device }

// Data returns the raw byte buffer.
func (rt *RawTensor) Data() []byte { return rt.data }

// NumElements returns the total number of elements.
func (rt *RawTensor) NumElements() int { return rt.shape.NumElements() }

// SetShape replaces the shape metadata. The element count must match
// the existing buffer.
func (rt *RawTensor) SetShape(shape Shape) {
	if shape.NumElements()*rt.dtype.Size() != len(rt.data) {
		panic(fmt.Sprintf("tensor: shape %v does not match buffer of %d bytes", shape, len(rt.data)))
	}
	rt.shape = shape.Clone()
}

// Clone returns a deep copy of the tensor.
func (rt *RawTensor) Clone() *RawTensor {
	clone := NewRaw(rt.shape, rt.dtype, rt.device)
	copy(clone.data, rt.data)
	return clone
}

// Float32s returns the buffer viewed as []float32.
// Panics if the dtype is not Float32.
func (rt *RawTensor) Float32s() []float32 {
	if rt.dtype != Float32 {
		panic(fmt.Sprintf("tensor: Float32s called on %s tensor", rt.dtype))
	}
	if len(rt.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&rt.data[0])), rt.NumElements())
}

// Bools returns the buffer viewed as []bool.
// Panics if the dtype is not Bool.
func (rt *RawTensor) Bools() []bool {
	if rt.dtype != Bool {
		panic(fmt.Sprintf("tensor: Bools called on %s tensor", rt.dtype))
	}
	if len(rt.data) == 0 {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&rt.data[0])), rt.NumElements())
}
