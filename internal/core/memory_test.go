package core

import "testing"

func TestSizeClassRounding(t *testing.T) {
	tests := []struct {
		n, class int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{17, 32},
		{64, 64},
		{65, 128},
	}
	for _, tt := range tests {
		if got := sizeClass(tt.n); got != tt.class {
			t.Errorf("sizeClass(%d) = %d, want %d", tt.n, got, tt.class)
		}
	}
}

func TestCachingManagerReusesBlocks(t *testing.T) {
	m := NewCachingMemoryManager(&hostMemoryManager{device: CPU}, nil)

	a := m.Allocate(100)
	data := &a.Data()[0]
	a.Release()

	// Same size class comes back out of the cache, zeroed.
	b := m.Allocate(120)
	if &b.Data()[0] != data {
		t.Error("expected the cached block to be reused")
	}
	for _, v := range b.Data() {
		if v != 0 {
			t.Fatal("recycled block must be zeroed")
		}
	}
	b.Release()

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss", stats)
	}
}

func TestReleaseCacheKeepsLiveBuffers(t *testing.T) {
	m := NewCachingMemoryManager(&hostMemoryManager{device: CPU}, nil)

	live := m.Allocate(64)
	copy(live.Data(), []byte{1, 2, 3, 4})

	scratch := m.Allocate(64)
	scratch.Release()

	m.ReleaseCache()

	for i, want := range []byte{1, 2, 3, 4} {
		if live.Data()[i] != want {
			t.Fatalf("live buffer corrupted at %d after ReleaseCache", i)
		}
	}
	if m.Stats().CachedBytes != 0 {
		t.Errorf("cached bytes = %d after ReleaseCache", m.Stats().CachedBytes)
	}
	live.Release()
}

func TestMemcpyBetweenBuffers(t *testing.T) {
	mgr := GetMemoryManager(CPU)
	src := mgr.Allocate(8)
	defer src.Release()
	dst := mgr.Allocate(8)
	defer dst.Release()

	copy(src.Data(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	Memcpy(dst, 2, src, 0, 4)
	want := []byte{0, 0, 1, 2, 3, 4, 0, 0}
	for i, v := range dst.Data() {
		if v != want[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestMemcpyOutOfRangePanics(t *testing.T) {
	mgr := GetMemoryManager(CPU)
	src := mgr.Allocate(4)
	defer src.Release()
	dst := mgr.Allocate(4)
	defer dst.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range memcpy")
		}
	}()
	Memcpy(dst, 2, src, 0, 4)
}

func TestBufferOverReleasePanics(t *testing.T) {
	b := GetMemoryManager(CPU).Allocate(4)
	b.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on over-release")
		}
	}()
	b.Release()
}
