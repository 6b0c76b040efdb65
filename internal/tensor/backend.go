package tensor

// Backend defines the raw operations a compute device must provide.
// All methods take and return RawTensor; shape or dtype violations
// panic with context. The nn layer composes these primitives and never
// touches buffers behind the backend's back except through Data().
type Backend interface {
	// Name returns a human-readable backend identifier.
	Name() string

	// Device returns the device this backend computes on.
	Device() Device

	// Element-wise binary ops with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar ops. The scalar must match the tensor's element type.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul multiplies two 2D tensors: (m, k) x (k, n) -> (m, n).
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul multiplies two tensors of rank >= 3 with identical
	// leading batch dimensions: (..., m, k) x (..., k, n) -> (..., m, n).
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Conv1D applies a grouped 1D convolution.
	// input is (batch, channels, time), kernel is
	// (outChannels, channels/groups, kernelSize); the output is
	// (batch, outChannels, outTime) with
	// outTime = time + 2*padding - kernelSize + 1 for stride 1.
	Conv1D(input, kernel *RawTensor, stride, padding, groups int) *RawTensor

	// Shape manipulation.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes []int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, chunks, dim int) []*RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor

	// Softmax along dim with max subtraction for stability.
	Softmax(x *RawTensor, dim int) *RawTensor

	// MaskedFill writes value into x wherever the broadcastable bool
	// mask is true, returning a new tensor.
	MaskedFill(x *RawTensor, mask *RawTensor, value float32) *RawTensor

	// Reductions. dim may be negative (counted from the end).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
}
