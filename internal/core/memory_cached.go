package core

import (
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
)

const maxCachedPerClass = 64

// CachingMemoryManager wraps another MemoryManager and recycles freed blocks
// of matching size class to amortize allocation cost on accelerator devices.
//
// ReleaseCache returns every cached-but-unused block to the inner allocator;
// callers must invoke it before measuring true device memory usage or before
// device teardown. Live buffers are untouched by ReleaseCache.
//
// The manager is safe under concurrent Allocate/Free from multiple host
// threads.
type CachingMemoryManager struct {
	inner  MemoryManager
	logger *slog.Logger

	mu   sync.Mutex
	free map[int][]*Buffer // size class -> cached blocks

	hits        uint64
	misses      uint64
	cachedBytes uint64
}

// CacheStats is a snapshot of cache effectiveness counters.
type CacheStats struct {
	Hits        uint64
	Misses      uint64
	CachedBytes uint64
}

// NewCachingMemoryManager wraps inner with a size-class cache.
// A nil logger disables logging.
func NewCachingMemoryManager(inner MemoryManager, logger *slog.Logger) *CachingMemoryManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingMemoryManager{
		inner:  inner,
		logger: logger,
		free:   make(map[int][]*Buffer),
	}
}

// sizeClass rounds nbytes up to the next power of two so that freed blocks
// are reusable for any request of the same class.
func sizeClass(nbytes int) int {
	if nbytes <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(nbytes-1))
}

// Allocate returns a zeroed buffer of at least nbytes, reusing a cached
// block of the same size class when one is available.
func (m *CachingMemoryManager) Allocate(nbytes int) *Buffer {
	if nbytes < 0 {
		panic(fmt.Sprintf("cannot allocate %d bytes on %s", nbytes, m.inner.Device()))
	}
	class := sizeClass(nbytes)

	m.mu.Lock()
	if blocks := m.free[class]; len(blocks) > 0 {
		b := blocks[len(blocks)-1]
		m.free[class] = blocks[:len(blocks)-1]
		m.hits++
		m.cachedBytes -= uint64(b.nbytes)
		m.mu.Unlock()

		clear(b.data)
		b.refs.Store(1)
		// The zeroed host image is now authoritative for the recycled block.
		m.Invalidate(b)
		return b
	}
	m.misses++
	m.mu.Unlock()

	b := m.inner.Allocate(class)
	// Re-own the block so Release routes frees back through the cache.
	b.mgr = m
	return b
}

// Free returns the block to the cache, or to the inner allocator when the
// class is already full.
func (m *CachingMemoryManager) Free(b *Buffer) {
	class := sizeClass(b.nbytes)

	m.mu.Lock()
	if len(m.free[class]) < maxCachedPerClass {
		m.free[class] = append(m.free[class], b)
		m.cachedBytes += uint64(b.nbytes)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.inner.Free(b)
}

// Device returns the device of the wrapped allocator.
func (m *CachingMemoryManager) Device() Device {
	return m.inner.Device()
}

// Invalidate forwards host-image invalidation to the inner manager.
func (m *CachingMemoryManager) Invalidate(b *Buffer) {
	if inv, ok := m.inner.(interface{ Invalidate(*Buffer) }); ok {
		inv.Invalidate(b)
	}
}

// ReleaseCache returns all cached-but-unused blocks to the inner allocator.
func (m *CachingMemoryManager) ReleaseCache() {
	m.mu.Lock()
	released := 0
	var blocks []*Buffer
	for class, cached := range m.free {
		blocks = append(blocks, cached...)
		released += len(cached)
		delete(m.free, class)
	}
	m.cachedBytes = 0
	m.mu.Unlock()

	for _, b := range blocks {
		m.inner.Free(b)
	}
	m.logger.Debug("memory cache released", "device", m.Device().String(), "blocks", released)
}

// Stats returns a snapshot of the cache counters.
func (m *CachingMemoryManager) Stats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CacheStats{Hits: m.hits, Misses: m.misses, CachedBytes: m.cachedBytes}
}
