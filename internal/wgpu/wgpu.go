// Package wgpu hosts the WebGPU accelerator backend: adapter discovery, the
// per-device memory manager with its caching allocator, stream bookkeeping,
// and compute-shader launches for the elementwise kernels.
//
// The native bindings are only wired up on windows (the platform the wgpu
// runtime libraries ship for). Elsewhere the package reduces to stubs that
// report no devices, and the memory manager for the webgpu device kind is
// never registered, so webgpu tensors cannot be created at all.
package wgpu

import "errors"

// ErrNotAccelerated reports that an operation has no shader coverage for the
// given dtype/layout combination. Callers fall back to the host kernels over
// the buffer's host image, which is always authoritative.
var ErrNotAccelerated = errors.New("webgpu: no shader coverage for operand layout")
