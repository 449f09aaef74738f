package core

import (
	"fmt"
	"unsafe"
)

// Tensor is a strided N-dimensional array view over a shared, reference
// counted Buffer. Strides are signed per-dimension byte strides; views
// adjust shape/strides/offset and never copy the underlying data. The only
// copy triggers are Contiguous and Clone.
//
// Device and dtype are fixed at construction. Concurrent reads from multiple
// goroutines are safe; serializing concurrent writes to overlapping views is
// the caller's responsibility.
type Tensor struct {
	shape      Shape
	strides    []int // byte strides
	dtype      Dtype
	device     Device
	byteOffset int
	buffer     *Buffer
}

// Empty allocates an uninitialized (zeroed) tensor of the given shape, dtype
// and device through the device's memory manager.
func Empty(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if dtype == Undefined {
		return nil, fmt.Errorf("cannot create tensor with undefined dtype")
	}
	nbytes := shape.NumElements() * dtype.ByteSize()
	buf := GetMemoryManager(device).Allocate(nbytes)
	return &Tensor{
		shape:      shape.Clone(),
		strides:    shape.defaultStrides(dtype.ByteSize()),
		dtype:      dtype,
		device:     device,
		byteOffset: 0,
		buffer:     buf,
	}, nil
}

// Zeros allocates a zero-filled tensor.
func Zeros(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	return Empty(shape, dtype, device)
}

// Full allocates a tensor filled with the given scalar value.
func Full(shape Shape, value any, dtype Dtype, device Device) (*Tensor, error) {
	t, err := Empty(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	if err := t.Fill(value); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Ones allocates a tensor filled with ones.
func Ones(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	return Full(shape, 1, dtype, device)
}

// FromSlice creates a tensor on device by copying a Go slice.
func FromSlice[T Scalar](data []T, shape Shape, device Device) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	t, err := Empty(shape, DtypeOf[T](), device)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		dst := unsafe.Slice((*T)(unsafe.Pointer(&t.dataWindow()[0])), len(data))
		copy(dst, data)
		invalidateDeviceHandle(t.buffer)
	}
	return t, nil
}

// NewTensorView wraps an existing buffer without copying. The buffer's
// refcount is incremented; callers keep ownership of their own reference.
func NewTensorView(buf *Buffer, shape Shape, strides []int, dtype Dtype, byteOffset int) *Tensor {
	if len(shape) != len(strides) {
		panic(fmt.Sprintf("shape rank %d does not match strides rank %d", len(shape), len(strides)))
	}
	buf.Retain()
	return &Tensor{
		shape:      shape.Clone(),
		strides:    append([]int(nil), strides...),
		dtype:      dtype,
		device:     buf.Device(),
		byteOffset: byteOffset,
		buffer:     buf,
	}
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Strides returns the signed per-dimension byte strides.
func (t *Tensor) Strides() []int {
	return t.strides
}

// Dtype returns the tensor's dtype.
func (t *Tensor) Dtype() Dtype {
	return t.dtype
}

// Device returns the tensor's device.
func (t *Tensor) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// NumBytes returns the logical byte size of the view.
func (t *Tensor) NumBytes() int {
	return t.NumElements() * t.dtype.ByteSize()
}

// ByteOffset returns the view's offset into the shared buffer.
func (t *Tensor) ByteOffset() int {
	return t.byteOffset
}

// Buffer returns the underlying shared buffer.
func (t *Tensor) Buffer() *Buffer {
	return t.buffer
}

// Release drops this view's reference to the shared buffer. The buffer is
// freed through its memory manager when the last view releases it.
func (t *Tensor) Release() {
	if t.buffer != nil {
		t.buffer.Release()
		t.buffer = nil
	}
}

// IsContiguous reports whether the strides match the canonical row-major
// layout for the shape.
func (t *Tensor) IsContiguous() bool {
	canonical := t.shape.defaultStrides(t.dtype.ByteSize())
	for i := range canonical {
		// Axes of size <= 1 never affect addressing.
		if t.shape[i] > 1 && t.strides[i] != canonical[i] {
			return false
		}
	}
	return true
}

// dataWindow returns the buffer bytes starting at the view offset.
// Only meaningful for contiguous views.
func (t *Tensor) dataWindow() []byte {
	return t.buffer.Data()[t.byteOffset:]
}

// assertTyped panics unless the view is contiguous with the wanted dtype.
func (t *Tensor) assertTyped(want Dtype) {
	if t.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", t.dtype, want))
	}
	if !t.IsContiguous() {
		panic(fmt.Sprintf("typed access requires a contiguous tensor, shape %v strides %v",
			t.shape, t.strides))
	}
}

// AsFloat32 interprets the data as []float32. Panics if the tensor is not a
// contiguous Float32 tensor.
func (t *Tensor) AsFloat32() []float32 {
	t.assertTyped(Float32)
	if t.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.dataWindow()[0])), t.NumElements())
}

// AsFloat64 interprets the data as []float64.
func (t *Tensor) AsFloat64() []float64 {
	t.assertTyped(Float64)
	if t.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&t.dataWindow()[0])), t.NumElements())
}

// AsInt32 interprets the data as []int32.
func (t *Tensor) AsInt32() []int32 {
	t.assertTyped(Int32)
	if t.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.dataWindow()[0])), t.NumElements())
}

// AsInt64 interprets the data as []int64.
func (t *Tensor) AsInt64() []int64 {
	t.assertTyped(Int64)
	if t.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&t.dataWindow()[0])), t.NumElements())
}

// AsUint8 interprets the data as []uint8.
func (t *Tensor) AsUint8() []uint8 {
	t.assertTyped(UInt8)
	return t.dataWindow()[:t.NumElements()]
}

// AsBool interprets the data as []bool.
func (t *Tensor) AsBool() []bool {
	t.assertTyped(Bool)
	if t.NumElements() == 0 {
		return nil
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&t.dataWindow()[0])), t.NumElements())
}

// ElementBytes returns the raw bytes of the element at the given indices.
func (t *Tensor) ElementBytes(indices ...int) []byte {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	off := t.byteOffset
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)",
				idx, i, t.shape[i]))
		}
		off += idx * t.strides[i]
	}
	return t.buffer.Data()[off : off+t.dtype.ByteSize()]
}

// At returns the typed element at the given indices.
func At[T Scalar](t *Tensor, indices ...int) T {
	if DtypeOf[T]() != t.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", t.dtype, DtypeOf[T]()))
	}
	b := t.ElementBytes(indices...)
	return *(*T)(unsafe.Pointer(&b[0]))
}

// SetAt stores a typed element at the given indices.
func SetAt[T Scalar](t *Tensor, value T, indices ...int) {
	if DtypeOf[T]() != t.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", t.dtype, DtypeOf[T]()))
	}
	b := t.ElementBytes(indices...)
	*(*T)(unsafe.Pointer(&b[0])) = value
	invalidateDeviceHandle(t.buffer)
}

// Item returns the value of a single-element tensor.
func Item[T Scalar](t *Tensor) T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item only works for single-element tensors, got shape %v", t.shape))
	}
	idx := make([]int, len(t.shape))
	b := t.ElementBytes(idx...)
	return *(*T)(unsafe.Pointer(&b[0]))
}

// Fill writes the scalar value to every element of the view.
func (t *Tensor) Fill(value any) error {
	elem, err := ScalarBytes(value, t.dtype)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	size := t.dtype.ByteSize()
	if t.IsContiguous() {
		data := t.dataWindow()
		for i := 0; i < t.NumElements(); i++ {
			copy(data[i*size:(i+1)*size], elem)
		}
	} else {
		it := newStridedIter(t)
		for it.next() {
			copy(it.bytes(), elem)
		}
	}
	invalidateDeviceHandle(t.buffer)
	return nil
}

// View returns a tensor of a new shape aliasing the same data. The view must
// preserve the element count and the source must be contiguous.
func (t *Tensor) View(newShape Shape) (*Tensor, error) {
	if err := newShape.Validate(); err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	if newShape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("view: shape %v is incompatible with %d elements",
			newShape, t.NumElements())
	}
	if !t.IsContiguous() {
		return nil, fmt.Errorf("view: tensor with strides %v is not contiguous; call Contiguous first",
			t.strides)
	}
	return NewTensorView(t.buffer, newShape, newShape.defaultStrides(t.dtype.ByteSize()),
		t.dtype, t.byteOffset), nil
}

// Reshape returns a tensor of a new shape, aliasing when the source is
// contiguous and copying otherwise.
func (t *Tensor) Reshape(newShape Shape) (*Tensor, error) {
	if t.IsContiguous() {
		return t.View(newShape)
	}
	c := t.Contiguous()
	defer c.Release()
	return c.View(newShape)
}

// Slice returns a view of dim restricted to [start, stop) with the given
// step. Negative steps walk the dimension backwards.
func (t *Tensor) Slice(dim, start, stop, step int) (*Tensor, error) {
	if dim < 0 || dim >= len(t.shape) {
		return nil, fmt.Errorf("slice: dimension %d out of range for shape %v", dim, t.shape)
	}
	if step == 0 {
		return nil, fmt.Errorf("slice: step must not be zero")
	}
	if start < 0 || start > t.shape[dim] || stop < 0 || stop > t.shape[dim] {
		return nil, fmt.Errorf("slice: range [%d, %d) out of bounds for dimension %d (size %d)",
			start, stop, dim, t.shape[dim])
	}
	var length int
	if step > 0 {
		if stop < start {
			stop = start
		}
		length = (stop - start + step - 1) / step
	} else {
		if stop > start {
			stop = start
		}
		length = (start - stop - step - 1) / -step
	}
	shape := t.shape.Clone()
	strides := append([]int(nil), t.strides...)
	shape[dim] = length
	strides[dim] = t.strides[dim] * step
	offset := t.byteOffset + start*t.strides[dim]
	return NewTensorView(t.buffer, shape, strides, t.dtype, offset), nil
}

// Permute returns a view with dimensions reordered by perm.
func (t *Tensor) Permute(perm ...int) (*Tensor, error) {
	if len(perm) != len(t.shape) {
		return nil, fmt.Errorf("permute: got %d dims for shape %v", len(perm), t.shape)
	}
	seen := make([]bool, len(perm))
	shape := make(Shape, len(perm))
	strides := make([]int, len(perm))
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, fmt.Errorf("permute: invalid permutation %v", perm)
		}
		seen[p] = true
		shape[i] = t.shape[p]
		strides[i] = t.strides[p]
	}
	return NewTensorView(t.buffer, shape, strides, t.dtype, t.byteOffset), nil
}

// T returns the transpose view of a 2-D tensor.
func (t *Tensor) T() (*Tensor, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("T: expected a 2-D tensor, got shape %v", t.shape)
	}
	return t.Permute(1, 0)
}

// Contiguous returns a tensor with canonical row-major layout. Contiguous
// sources are returned as a fresh aliasing view; strided sources are
// gathered into new memory.
func (t *Tensor) Contiguous() *Tensor {
	if t.IsContiguous() {
		return NewTensorView(t.buffer, t.shape, t.strides, t.dtype, t.byteOffset)
	}
	dst, err := Empty(t.shape, t.dtype, t.device)
	if err != nil {
		panic(fmt.Sprintf("contiguous: %v", err))
	}
	size := t.dtype.ByteSize()
	out := dst.dataWindow()
	it := newStridedIter(t)
	for i := 0; it.next(); i++ {
		copy(out[i*size:(i+1)*size], it.bytes())
	}
	invalidateDeviceHandle(dst.buffer)
	return dst
}

// Clone returns a deep copy with canonical layout. Cloning is the explicit
// copy trigger; plain views always alias.
func (t *Tensor) Clone() *Tensor {
	if !t.IsContiguous() {
		return t.Contiguous()
	}
	dst, err := Empty(t.shape, t.dtype, t.device)
	if err != nil {
		panic(fmt.Sprintf("clone: %v", err))
	}
	copy(dst.dataWindow()[:t.NumBytes()], t.dataWindow()[:t.NumBytes()])
	invalidateDeviceHandle(dst.buffer)
	return dst
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.dtype, t.shape, t.device)
}

// stridedIter walks every element of an arbitrarily strided view in
// row-major index order.
type stridedIter struct {
	t       *Tensor
	indices []int
	off     int
	done    bool
	started bool
}

func newStridedIter(t *Tensor) *stridedIter {
	return &stridedIter{
		t:       t,
		indices: make([]int, len(t.Shape())),
		off:     t.byteOffset,
		done:    t.NumElements() == 0,
	}
}

func (it *stridedIter) next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		return true
	}
	for d := len(it.indices) - 1; d >= 0; d-- {
		it.indices[d]++
		it.off += it.t.strides[d]
		if it.indices[d] < it.t.shape[d] {
			return true
		}
		it.off -= it.indices[d] * it.t.strides[d]
		it.indices[d] = 0
	}
	it.done = true
	return false
}

func (it *stridedIter) bytes() []byte {
	return it.t.buffer.Data()[it.off : it.off+it.t.dtype.ByteSize()]
}
