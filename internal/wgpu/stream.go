package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/strata3d/strata/internal/core"
)

// Stream identifies an ordered submission scope on a WebGPU device. WebGPU
// exposes a single hardware queue per device, so streams add no concurrency
// of their own; they exist so call sites keep stream discipline (launch on
// the current stream, synchronize a specific stream) and so the scoping
// rules match what a multi-queue backend would need.
type Stream struct {
	device core.Device
	id     uint64
}

var (
	streamIDs atomic.Uint64

	streamMu sync.Mutex
	defaults = map[core.Device]*Stream{}
	current  = map[core.Device]*Stream{}
)

// DefaultStream returns the device's default stream, creating it on first
// use. Stream id 0 is reserved for defaults.
func DefaultStream(device core.Device) *Stream {
	mustWebGPU(device)
	streamMu.Lock()
	defer streamMu.Unlock()
	s, ok := defaults[device]
	if !ok {
		s = &Stream{device: device}
		defaults[device] = s
	}
	return s
}

// NewStream creates a fresh non-default stream on the device.
func NewStream(device core.Device) *Stream {
	mustWebGPU(device)
	return &Stream{device: device, id: streamIDs.Add(1)}
}

// CurrentStream returns the stream kernel launches on the device target,
// which is the default stream unless overridden by SetCurrentStream.
func CurrentStream(device core.Device) *Stream {
	mustWebGPU(device)
	streamMu.Lock()
	s := current[device]
	streamMu.Unlock()
	if s != nil {
		return s
	}
	return DefaultStream(device)
}

// SetCurrentStream overrides the current stream for s's device and returns a
// closure that restores the previous selection. Overrides nest:
//
//	restore := wgpu.SetCurrentStream(s)
//	defer restore()
func SetCurrentStream(s *Stream) (restore func()) {
	streamMu.Lock()
	prev, hadPrev := current[s.device]
	current[s.device] = s
	streamMu.Unlock()

	return func() {
		streamMu.Lock()
		if hadPrev {
			current[s.device] = prev
		} else {
			delete(current, s.device)
		}
		streamMu.Unlock()
	}
}

// Device returns the device the stream belongs to.
func (s *Stream) Device() core.Device {
	return s.device
}

// IsDefault reports whether s is its device's default stream.
func (s *Stream) IsDefault() bool {
	return s.id == 0
}

// Synchronize blocks until all work submitted on the stream has completed.
// Launches currently map their results back before returning, so the queue
// is already drained; the method anchors the contract call sites rely on.
func (s *Stream) Synchronize() {}

func (s *Stream) String() string {
	if s.IsDefault() {
		return fmt.Sprintf("stream(%s, default)", s.device)
	}
	return fmt.Sprintf("stream(%s, %d)", s.device, s.id)
}

func mustWebGPU(device core.Device) {
	if device.Kind != core.KindWebGPU {
		panic(fmt.Sprintf("streams exist on webgpu devices only, got %s", device))
	}
}
