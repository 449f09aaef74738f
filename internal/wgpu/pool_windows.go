//go:build windows

package wgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const maxPooledPerUsage = 64

// bufferPool recycles GPU-side scratch buffers between launches. Only
// buffers that need no initial contents go through the pool (result storage
// and readback staging); input uploads always create fresh mapped buffers,
// since the bindings expose no way to write into an existing one.
type bufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	free map[wgpu.BufferUsage][]pooledBuffer

	hits   uint64
	misses uint64
}

type pooledBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{
		device: device,
		free:   make(map[wgpu.BufferUsage][]pooledBuffer),
	}
}

// acquire returns a buffer of exactly size bytes with the given usage,
// reusing a pooled one when available. Exact-size matching keeps binding
// sizes honest and still hits often, since tensor sizes repeat.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	list := p.free[usage]
	for i, pb := range list {
		if pb.size == size {
			p.free[usage] = append(list[:i], list[i+1:]...)
			p.hits++
			p.mu.Unlock()
			return pb.buf
		}
	}
	p.misses++
	p.mu.Unlock()

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// release returns a buffer to the pool, or frees it when the usage class is
// full.
func (p *bufferPool) release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	if len(p.free[usage]) < maxPooledPerUsage {
		p.free[usage] = append(p.free[usage], pooledBuffer{buf: buf, size: size})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	buf.Release()
}

// clear frees every pooled buffer.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for usage, list := range p.free {
		for _, pb := range list {
			pb.buf.Release()
		}
		delete(p.free, usage)
	}
}
