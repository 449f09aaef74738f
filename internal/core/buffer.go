package core

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a reference-counted block of raw memory tagged with the device
// it was allocated on. All Tensor views over the same allocation share one
// Buffer; the block is returned to its MemoryManager exactly when the last
// view releases it.
//
// Data always has a host-resident byte image; accelerator backends attach a
// device-side handle that they keep in sync around kernel launches.
type Buffer struct {
	data   []byte
	device Device
	nbytes int
	refs   atomic.Int32
	mgr    MemoryManager

	// Handle is backend-specific device state (e.g. a pooled GPU buffer).
	// Owned and interpreted by the allocating MemoryManager.
	Handle any
}

// NewManagedBuffer wraps a host byte image in a buffer with refcount 1,
// owned by mgr. Accelerator backends use this from their MemoryManager
// implementations; everyone else allocates through GetMemoryManager.
func NewManagedBuffer(data []byte, device Device, mgr MemoryManager) *Buffer {
	return newBuffer(data, device, mgr)
}

// newBuffer creates a buffer with refcount 1, owned by mgr.
func newBuffer(data []byte, device Device, mgr MemoryManager) *Buffer {
	b := &Buffer{
		data:   data,
		device: device,
		nbytes: len(data),
		mgr:    mgr,
	}
	b.refs.Store(1)
	return b
}

// Data returns the host byte image of the buffer.
func (b *Buffer) Data() []byte {
	return b.data
}

// Device returns the device the buffer was allocated on.
func (b *Buffer) Device() Device {
	return b.device
}

// NumBytes returns the allocation size in bytes.
func (b *Buffer) NumBytes() int {
	return b.nbytes
}

// Retain increments the reference count. Each Retain must be paired with a
// Release.
func (b *Buffer) Retain() {
	b.refs.Add(1)
}

// Release decrements the reference count and frees the block through the
// owning MemoryManager when it reaches zero.
func (b *Buffer) Release() {
	n := b.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("buffer on %s over-released (refcount %d)", b.device, n))
	}
	if n == 0 && b.mgr != nil {
		b.mgr.Free(b)
	}
}

// IsUnique reports whether this is the only live reference to the buffer.
func (b *Buffer) IsUnique() bool {
	return b.refs.Load() == 1
}
