//go:build !windows

package wgpu

import (
	"errors"

	"github.com/strata3d/strata/internal/core"
)

var errNotBuilt = errors.New("webgpu: backend not built for this platform")

// IsAvailable reports whether a WebGPU adapter could be acquired.
func IsAvailable() bool { return false }

// DeviceCount returns the number of usable WebGPU devices.
func DeviceCount() int { return 0 }

// ReleaseCache returns cached device allocations to the system. Without the
// backend there is nothing to release.
func ReleaseCache() {}

// LaunchUnaryEW is unreachable without the backend: the webgpu memory
// manager is never registered, so webgpu tensors cannot exist.
func LaunchUnaryEW(src, dst *core.Tensor, op string) error {
	return errNotBuilt
}

// LaunchBinaryEW is unreachable without the backend, see LaunchUnaryEW.
func LaunchBinaryEW(lhs, rhs, dst *core.Tensor, op string) error {
	return errNotBuilt
}
