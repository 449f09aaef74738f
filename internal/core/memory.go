package core

import (
	"fmt"
	"sync"
)

// MemoryManager is the device-aware allocate/free abstraction. Allocation
// returns memory immediately usable by the device's kernels; allocation
// failure is fatal (panic with a diagnostic): there is no graceful
// out-of-memory recovery path anywhere in the runtime.
type MemoryManager interface {
	// Allocate returns a zeroed buffer of nbytes with refcount 1.
	Allocate(nbytes int) *Buffer

	// Free returns a buffer to the allocator. Called by Buffer.Release when
	// the last reference drops; callers normally never invoke it directly.
	Free(b *Buffer)

	// Device returns the device this manager allocates for.
	Device() Device
}

var (
	managerMu        sync.Mutex
	managerFactories = map[DeviceKind]func(Device) MemoryManager{}
	managers         = map[Device]MemoryManager{}
)

func init() {
	RegisterMemoryManager(KindCPU, func(d Device) MemoryManager {
		return &hostMemoryManager{device: d}
	})
}

// RegisterMemoryManager installs the manager factory for a device kind.
// Accelerator backends call this from their init when compiled in.
func RegisterMemoryManager(kind DeviceKind, factory func(Device) MemoryManager) {
	managerMu.Lock()
	defer managerMu.Unlock()
	managerFactories[kind] = factory
	// Drop cached instances of the kind so a re-registration takes effect.
	for dev := range managers {
		if dev.Kind == kind {
			delete(managers, dev)
		}
	}
}

// GetMemoryManager returns the memory manager for the device, creating it on
// first use. It panics if no backend registered the device kind.
func GetMemoryManager(device Device) MemoryManager {
	managerMu.Lock()
	defer managerMu.Unlock()
	if m, ok := managers[device]; ok {
		return m
	}
	factory, ok := managerFactories[device.Kind]
	if !ok {
		panic(fmt.Sprintf("no memory manager registered for device kind %s; "+
			"the backend is not compiled in", device.Kind))
	}
	m := factory(device)
	managers[device] = m
	return m
}

// Memcpy copies nbytes from src at srcOff to dst at dstOff, performing the
// correct host<->device or peer transfer transparently to the caller. Every
// buffer keeps a host byte image, so the copy itself is a host copy; device
// handles are refreshed by the owning backend at the next kernel launch.
func Memcpy(dst *Buffer, dstOff int, src *Buffer, srcOff int, nbytes int) {
	if nbytes == 0 {
		return
	}
	if dstOff < 0 || srcOff < 0 || dstOff+nbytes > dst.nbytes || srcOff+nbytes > src.nbytes {
		panic(fmt.Sprintf("memcpy out of range: dst[%d:%d) of %d, src[%d:%d) of %d",
			dstOff, dstOff+nbytes, dst.nbytes, srcOff, srcOff+nbytes, src.nbytes))
	}
	copy(dst.data[dstOff:dstOff+nbytes], src.data[srcOff:srcOff+nbytes])
	invalidateDeviceHandle(dst)
}

// InvalidateHostMutation notifies the owning backend that the buffer's host
// image was modified directly (e.g. by a host kernel writing through a
// typed view), so any device-side copy must be refreshed before the next
// launch. A no-op for host-only managers.
func InvalidateHostMutation(b *Buffer) {
	invalidateDeviceHandle(b)
}

// invalidateDeviceHandle tells the owning backend that the host image of b
// changed behind its back.
func invalidateDeviceHandle(b *Buffer) {
	if inv, ok := b.mgr.(interface{ Invalidate(*Buffer) }); ok {
		inv.Invalidate(b)
	}
}

// hostMemoryManager allocates plain host memory for CPU tensors.
type hostMemoryManager struct {
	device Device
}

func (m *hostMemoryManager) Allocate(nbytes int) *Buffer {
	if nbytes < 0 {
		panic(fmt.Sprintf("cannot allocate %d bytes on %s", nbytes, m.device))
	}
	return newBuffer(make([]byte, nbytes), m.device, m)
}

func (m *hostMemoryManager) Free(b *Buffer) {
	b.data = nil
}

func (m *hostMemoryManager) Device() Device {
	return m.device
}
