//go:build windows

package wgpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/strata3d/strata/internal/core"
)

const workgroupSize = 256

const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	resultUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// gpuContext owns the instance/adapter/device chain plus the shader and
// pipeline caches shared by every launch. One context serves all ordinals:
// the bindings surface a single adapter, exposed as device 0.
type gpuContext struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	pool *bufferPool
}

var (
	ctxOnce  sync.Once
	ctx      *gpuContext
	ctxErr   error
	ctxReady atomic.Bool
)

func sharedContext() (*gpuContext, error) {
	ctxOnce.Do(func() {
		instance := wgpu.CreateInstance(nil)
		adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreferenceHighPerformance,
		})
		if err != nil {
			ctxErr = fmt.Errorf("webgpu: request adapter: %w", err)
			return
		}
		device, err := adapter.RequestDevice(nil)
		if err != nil {
			ctxErr = fmt.Errorf("webgpu: request device: %w", err)
			return
		}
		ctx = &gpuContext{
			device:    device,
			queue:     device.GetQueue(),
			shaders:   make(map[string]*wgpu.ShaderModule),
			pipelines: make(map[string]*wgpu.ComputePipeline),
			pool:      newBufferPool(device),
		}
		ctxReady.Store(true)
		slog.Info("webgpu adapter acquired")
	})
	return ctx, ctxErr
}

var (
	managerMu sync.Mutex
	managers  []*core.CachingMemoryManager
)

func init() {
	core.RegisterMemoryManager(core.KindWebGPU, func(d core.Device) core.MemoryManager {
		m := core.NewCachingMemoryManager(&deviceMemoryManager{device: d}, slog.Default())
		managerMu.Lock()
		managers = append(managers, m)
		managerMu.Unlock()
		return m
	})
}

// IsAvailable reports whether a WebGPU adapter could be acquired.
func IsAvailable() bool {
	_, err := sharedContext()
	return err == nil
}

// DeviceCount returns the number of usable WebGPU devices. The runtime binds
// the high-performance adapter, exposed as ordinal 0.
func DeviceCount() int {
	if IsAvailable() {
		return 1
	}
	return 0
}

// ReleaseCache returns cached host blocks and pooled GPU scratch buffers to
// the system. Live tensors are unaffected.
func ReleaseCache() {
	managerMu.Lock()
	ms := append([]*core.CachingMemoryManager(nil), managers...)
	managerMu.Unlock()
	for _, m := range ms {
		m.ReleaseCache()
	}
	if ctxReady.Load() {
		ctx.pool.clear()
	}
}

// deviceMemoryManager allocates webgpu buffers. The byte image lives on the
// host and is authoritative; the GPU-side copy hangs off Buffer.Handle and
// is refreshed lazily at the next launch after a host mutation.
type deviceMemoryManager struct {
	device core.Device
}

// deviceBuffer is the GPU-side shadow of a whole buffer, cached on
// Buffer.Handle so chained launches skip the upload.
type deviceBuffer struct {
	buf   *wgpu.Buffer
	size  uint64
	dirty bool
}

func (m *deviceMemoryManager) Allocate(nbytes int) *core.Buffer {
	if nbytes < 0 {
		panic(fmt.Sprintf("cannot allocate %d bytes on %s", nbytes, m.device))
	}
	return core.NewManagedBuffer(make([]byte, nbytes), m.device, m)
}

func (m *deviceMemoryManager) Free(b *core.Buffer) {
	if h, ok := b.Handle.(*deviceBuffer); ok {
		h.buf.Release()
		b.Handle = nil
	}
}

func (m *deviceMemoryManager) Device() core.Device {
	return m.device
}

// Invalidate marks the cached GPU copy stale after a direct host-image
// write.
func (m *deviceMemoryManager) Invalidate(b *core.Buffer) {
	if h, ok := b.Handle.(*deviceBuffer); ok {
		h.dirty = true
	}
}

// LaunchUnaryEW runs a unary elementwise op on the GPU. Coverage is a
// contiguous float32 source and destination of identical shape; anything
// else reports ErrNotAccelerated and the caller computes on the host image.
func LaunchUnaryEW(src, dst *core.Tensor, op string) error {
	code, ok := unaryShaders[op]
	if !ok {
		return ErrNotAccelerated
	}
	if !shaderCompatible(dst, src) {
		return ErrNotAccelerated
	}
	c, err := sharedContext()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAccelerated, err)
	}
	return c.runEW("unary_"+op, code, []*core.Tensor{src}, dst)
}

// LaunchBinaryEW runs a binary elementwise op on the GPU under the same
// coverage rules as LaunchUnaryEW. Broadcast operands fall back to the host
// kernels.
func LaunchBinaryEW(lhs, rhs, dst *core.Tensor, op string) error {
	code, ok := binaryShaders[op]
	if !ok {
		return ErrNotAccelerated
	}
	if !shaderCompatible(dst, lhs, rhs) {
		return ErrNotAccelerated
	}
	c, err := sharedContext()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAccelerated, err)
	}
	return c.runEW("binary_"+op, code, []*core.Tensor{lhs, rhs}, dst)
}

func shaderCompatible(dst *core.Tensor, inputs ...*core.Tensor) bool {
	if dst.Dtype() != core.Float32 || !dst.IsContiguous() || dst.NumElements() == 0 {
		return false
	}
	for _, in := range inputs {
		if in.Dtype() != core.Float32 || !in.IsContiguous() || !in.Shape().Equal(dst.Shape()) {
			return false
		}
	}
	return true
}

// runEW binds the inputs, a pooled result buffer and the element count, then
// dispatches one invocation per output element and maps the result back into
// dst's host window.
func (c *gpuContext) runEW(name, code string, inputs []*core.Tensor, dst *core.Tensor) error {
	n := dst.NumElements()
	size := uint64(dst.NumBytes())
	slog.Debug("webgpu dispatch",
		"kernel", name, "stream", CurrentStream(dst.Device()).String(), "elements", n)

	pipeline := c.pipeline(name, code)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	transient := make([]*wgpu.Buffer, 0, len(inputs))
	for i, in := range inputs {
		buf, cached := c.storageFor(in)
		if !cached {
			transient = append(transient, buf)
		}
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(in.NumBytes())))
	}
	defer func() {
		for _, buf := range transient {
			buf.Release()
		}
	}()

	result := c.pool.acquire(size, resultUsage)
	defer c.pool.release(result, size, resultUsage)
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)), result, 0, size))

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	paramsBuf := c.createUniformBuffer(params)
	defer paramsBuf.Release()
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)+1), paramsBuf, 0, 16))

	layout := pipeline.GetBindGroupLayout(0)
	bindGroup := c.device.CreateBindGroupSimple(layout, entries)
	defer bindGroup.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((n+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	c.queue.Submit(encoder.Finish(nil))

	out, err := c.readBuffer(result, size)
	if err != nil {
		return fmt.Errorf("webgpu: %s: %w", name, err)
	}

	window := dst.Buffer().Data()[dst.ByteOffset() : dst.ByteOffset()+dst.NumBytes()]
	copy(window, out)
	// The host image is fresh; any cached GPU copy of dst is now stale.
	core.InvalidateHostMutation(dst.Buffer())
	return nil
}

// storageFor returns a storage buffer holding the tensor's byte window.
// Tensors spanning their whole allocation keep the upload cached on the
// buffer handle; sliced views upload transiently and are released by the
// caller after submission.
func (c *gpuContext) storageFor(t *core.Tensor) (buf *wgpu.Buffer, cached bool) {
	window := t.Buffer().Data()[t.ByteOffset() : t.ByteOffset()+t.NumBytes()]
	whole := t.ByteOffset() == 0 && t.NumBytes() == t.Buffer().NumBytes()
	if !whole {
		return c.createBuffer(window, storageUsage), false
	}

	if h, ok := t.Buffer().Handle.(*deviceBuffer); ok {
		if !h.dirty {
			return h.buf, true
		}
		h.buf.Release()
	}
	h := &deviceBuffer{
		buf:  c.createBuffer(window, storageUsage),
		size: uint64(len(window)),
	}
	t.Buffer().Handle = h
	return h.buf, true
}

// pipeline returns the cached compute pipeline for the shader, compiling it
// on first use.
func (c *gpuContext) pipeline(name, code string) *wgpu.ComputePipeline {
	c.mu.RLock()
	if p, ok := c.pipelines[name]; ok {
		c.mu.RUnlock()
		return p
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[name]; ok {
		return p
	}
	shader, ok := c.shaders[name]
	if !ok {
		shader = c.device.CreateShaderModuleWGSL(code)
		c.shaders[name] = shader
	}
	p := c.device.CreateComputePipelineSimple(nil, shader, "main")
	c.pipelines[name] = p
	return p
}

// createBuffer creates a GPU buffer pre-filled with data.
func (c *gpuContext) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer creates a uniform buffer padded to the required
// 16-byte alignment.
func (c *gpuContext) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := (uint64(len(data)) + 15) &^ 15
	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a storage buffer into host memory through a pooled
// staging buffer. Storage buffers cannot be mapped directly.
func (c *gpuContext) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := c.pool.acquire(size, stagingUsage)
	defer c.pool.release(staging, size, stagingUsage)

	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	c.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	out := make([]byte, size)
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}
