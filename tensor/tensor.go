// Copyright 2025 Strata3D. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for dense N-dimensional arrays:
// dtype/device descriptors, strided tensors over reference-counted shared
// buffers, and the elementwise operation surface with NumPy-style
// broadcasting and implicit numeric promotion.
//
// Example:
//
//	a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1}, tensor.CPU)
//	b, _ := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{1, 4}, tensor.CPU)
//	c, _ := tensor.Add(a, b) // shape [3, 4]
package tensor

import (
	"github.com/strata3d/strata/internal/core"
)

// Type aliases for the public API.

// Dtype is a scalar element type tag with a fixed byte width.
type Dtype = core.Dtype

// Dtype values.
var (
	Bool    = core.Bool
	Int8    = core.Int8
	Int16   = core.Int16
	Int32   = core.Int32
	Int64   = core.Int64
	UInt8   = core.UInt8
	UInt16  = core.UInt16
	UInt32  = core.UInt32
	UInt64  = core.UInt64
	Float16 = core.Float16
	Float32 = core.Float32
	Float64 = core.Float64
)

// ObjectDtype returns the opaque blob dtype of the given byte size. Object
// values are copied and compared as raw bytes, never interpreted
// numerically.
func ObjectDtype(byteSize int) Dtype {
	return core.ObjectDtype(byteSize)
}

// Device identifies an execution target as a (kind, ordinal) pair.
type Device = core.Device

// DeviceKind enumerates the supported execution targets.
type DeviceKind = core.DeviceKind

// Device kinds.
const (
	KindCPU    DeviceKind = core.KindCPU
	KindWebGPU DeviceKind = core.KindWebGPU
)

// Common devices.
var (
	CPU     = core.CPU
	WebGPU0 = core.WebGPU0
)

// NewDevice returns the device with the given kind and ordinal.
func NewDevice(kind DeviceKind, ordinal int) Device {
	return core.NewDevice(kind, ordinal)
}

// ParseDevice parses strings like "cpu", "cpu:0" or "webgpu:1".
func ParseDevice(s string) (Device, error) {
	return core.ParseDevice(s)
}

// Shape is the dimension vector of a tensor.
type Shape = core.Shape

// Tensor is a strided N-dimensional array view over a shared,
// reference-counted buffer. Views always alias; Contiguous and Clone are the
// only operations that copy.
type Tensor = core.Tensor

// Buffer is the reference-counted memory block shared by tensor views.
type Buffer = core.Buffer

// Scalar is the constraint over Go types storable in tensors.
type Scalar = core.Scalar

// Creation functions.

// Empty allocates an uninitialized tensor.
func Empty(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	return core.Empty(shape, dtype, device)
}

// Zeros allocates a tensor filled with zeros.
func Zeros(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	return core.Zeros(shape, dtype, device)
}

// Ones allocates a tensor filled with ones.
func Ones(shape Shape, dtype Dtype, device Device) (*Tensor, error) {
	return core.Ones(shape, dtype, device)
}

// Full allocates a tensor filled with the given scalar value.
func Full(shape Shape, value any, dtype Dtype, device Device) (*Tensor, error) {
	return core.Full(shape, value, dtype, device)
}

// FromSlice copies a Go slice into a freshly allocated tensor.
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
func FromSlice[T Scalar](data []T, shape Shape, device Device) (*Tensor, error) {
	return core.FromSlice(data, shape, device)
}

// Element access.

// At reads one element at the given indices.
func At[T Scalar](t *Tensor, indices ...int) T {
	return core.At[T](t, indices...)
}

// SetAt writes one element at the given indices.
func SetAt[T Scalar](t *Tensor, value T, indices ...int) {
	core.SetAt(t, value, indices...)
}

// Item reads the single element of a one-element tensor.
func Item[T Scalar](t *Tensor) T {
	return core.Item[T](t)
}

// Utility functions.

// PromoteTypes returns the common dtype two operands are implicitly
// promoted to (bool < unsigned < signed < float).
func PromoteTypes(a, b Dtype) (Dtype, error) {
	return core.PromoteTypes(a, b)
}

// BroadcastShapes computes the right-aligned NumPy broadcast of the given
// shapes, or fails if any dimension pair is incompatible.
func BroadcastShapes(shapes ...Shape) (Shape, error) {
	return core.BroadcastShapes(shapes...)
}
