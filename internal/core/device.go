package core

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceKind identifies an execution backend family.
type DeviceKind int

// Supported device kinds. WebGPU plays the accelerator role; its kernels are
// only registered when the backend is compiled in and a device is present.
const (
	KindCPU DeviceKind = iota
	KindWebGPU
)

// String returns a human-readable kind name.
func (k DeviceKind) String() string {
	switch k {
	case KindCPU:
		return "CPU"
	case KindWebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Device identifies an execution target as a (kind, ordinal) pair.
// Two devices are equal iff both kind and ordinal match, so Device values
// compare with ==.
type Device struct {
	Kind    DeviceKind
	Ordinal int
}

// Common devices.
var (
	CPU     = Device{KindCPU, 0}
	WebGPU0 = Device{KindWebGPU, 0}
)

// NewDevice builds a device descriptor for the given kind and ordinal.
func NewDevice(kind DeviceKind, ordinal int) Device {
	return Device{Kind: kind, Ordinal: ordinal}
}

// ParseDevice parses strings of the form "CPU:0" or "WebGPU:1".
// The kind is case-insensitive; a missing ordinal defaults to 0.
func ParseDevice(s string) (Device, error) {
	name, ordinalStr, hasOrdinal := strings.Cut(s, ":")
	ordinal := 0
	if hasOrdinal {
		n, err := strconv.Atoi(ordinalStr)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("invalid device ordinal in %q", s)
		}
		ordinal = n
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cpu":
		return Device{KindCPU, ordinal}, nil
	case "webgpu", "gpu":
		return Device{KindWebGPU, ordinal}, nil
	default:
		return Device{}, fmt.Errorf("unknown device %q", s)
	}
}

// String returns the canonical "Kind:ordinal" form.
func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.Ordinal)
}

// IsCPU reports whether the device is the host CPU.
func (d Device) IsCPU() bool {
	return d.Kind == KindCPU
}

// IsWebGPU reports whether the device is a WebGPU accelerator.
func (d Device) IsWebGPU() bool {
	return d.Kind == KindWebGPU
}
