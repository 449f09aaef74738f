// Copyright 2025 Strata3D. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package accel exposes the accelerator query surface to embedding
// applications. Every call is safe when no accelerator is present: counts
// come back zero, availability false and cache release is a no-op, so
// callers never need build-tag awareness.
package accel

import (
	"github.com/strata3d/strata/internal/core"
	"github.com/strata3d/strata/internal/wgpu"
)

// Device identifies an execution target as a (kind, ordinal) pair.
type Device = core.Device

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return wgpu.IsAvailable()
}

// DeviceCount returns the number of usable WebGPU devices.
func DeviceCount() int {
	return wgpu.DeviceCount()
}

// ReleaseCache returns cached device allocations to the system. Live
// tensors are unaffected.
func ReleaseCache() {
	wgpu.ReleaseCache()
}

// Stream identifies an ordered submission scope on an accelerator device.
type Stream = wgpu.Stream

// DefaultStream returns the device's default stream.
func DefaultStream(device Device) *Stream {
	return wgpu.DefaultStream(device)
}

// NewStream creates a fresh non-default stream on the device.
func NewStream(device Device) *Stream {
	return wgpu.NewStream(device)
}

// CurrentStream returns the stream that launches on the device are
// currently issued to.
func CurrentStream(device Device) *Stream {
	return wgpu.CurrentStream(device)
}

// SetCurrentStream overrides the current stream for the stream's device and
// returns a closure restoring the previous selection. Overrides nest.
func SetCurrentStream(s *Stream) (restore func()) {
	return wgpu.SetCurrentStream(s)
}
