package kernel

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"

	"github.com/strata3d/strata/internal/core"
)

// unaryFn computes one output element from one input element. The byte
// windows are exactly one element wide.
type unaryFn func(src, dst []byte)

// binaryFn computes one output element from two input elements.
type binaryFn func(lhs, rhs, dst []byte)

func ptr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// castKernel returns the element converter from src to dst dtype, resolved
// once per call site. Same-dtype pairs reduce to a raw element copy, pairs
// within the integer families convert exactly through int64, and any pair
// involving a float converts through float64.
func castKernel(src, dst core.Dtype) (unaryFn, error) {
	if src.IsObject() || dst.IsObject() {
		return nil, fmt.Errorf("cannot cast object dtype (%s -> %s)", src, dst)
	}
	if src == dst {
		size := src.ByteSize()
		return func(s, d []byte) {
			copy(d[:size], s[:size])
		}, nil
	}
	if !src.IsFloat() && !dst.IsFloat() {
		load, err := intLoader(src)
		if err != nil {
			return nil, err
		}
		store, err := intStorer(dst)
		if err != nil {
			return nil, err
		}
		return func(s, d []byte) {
			store(d, load(s))
		}, nil
	}
	load, err := floatLoader(src)
	if err != nil {
		return nil, err
	}
	store, err := floatStorer(dst)
	if err != nil {
		return nil, err
	}
	return func(s, d []byte) {
		store(d, load(s))
	}, nil
}

func intLoader(dtype core.Dtype) (func([]byte) int64, error) {
	switch dtype {
	case core.Bool:
		return func(b []byte) int64 {
			if b[0] != 0 {
				return 1
			}
			return 0
		}, nil
	case core.Int8:
		return func(b []byte) int64 { return int64(*(*int8)(ptr(b))) }, nil
	case core.Int16:
		return func(b []byte) int64 { return int64(*(*int16)(ptr(b))) }, nil
	case core.Int32:
		return func(b []byte) int64 { return int64(*(*int32)(ptr(b))) }, nil
	case core.Int64:
		return func(b []byte) int64 { return *(*int64)(ptr(b)) }, nil
	case core.UInt8:
		return func(b []byte) int64 { return int64(b[0]) }, nil
	case core.UInt16:
		return func(b []byte) int64 { return int64(*(*uint16)(ptr(b))) }, nil
	case core.UInt32:
		return func(b []byte) int64 { return int64(*(*uint32)(ptr(b))) }, nil
	case core.UInt64:
		return func(b []byte) int64 { return int64(*(*uint64)(ptr(b))) }, nil
	default:
		return nil, fmt.Errorf("no integer loader for dtype %s", dtype)
	}
}

func intStorer(dtype core.Dtype) (func([]byte, int64), error) {
	switch dtype {
	case core.Bool:
		return func(b []byte, v int64) {
			if v != 0 {
				b[0] = 1
			} else {
				b[0] = 0
			}
		}, nil
	case core.Int8:
		return func(b []byte, v int64) { *(*int8)(ptr(b)) = int8(v) }, nil
	case core.Int16:
		return func(b []byte, v int64) { *(*int16)(ptr(b)) = int16(v) }, nil
	case core.Int32:
		return func(b []byte, v int64) { *(*int32)(ptr(b)) = int32(v) }, nil
	case core.Int64:
		return func(b []byte, v int64) { *(*int64)(ptr(b)) = v }, nil
	case core.UInt8:
		return func(b []byte, v int64) { b[0] = uint8(v) }, nil
	case core.UInt16:
		return func(b []byte, v int64) { *(*uint16)(ptr(b)) = uint16(v) }, nil
	case core.UInt32:
		return func(b []byte, v int64) { *(*uint32)(ptr(b)) = uint32(v) }, nil
	case core.UInt64:
		return func(b []byte, v int64) { *(*uint64)(ptr(b)) = uint64(v) }, nil
	default:
		return nil, fmt.Errorf("no integer storer for dtype %s", dtype)
	}
}

func floatLoader(dtype core.Dtype) (func([]byte) float64, error) {
	switch dtype {
	case core.Float16:
		return func(b []byte) float64 {
			return float64(float16.Frombits(*(*uint16)(ptr(b))).Float32())
		}, nil
	case core.Float32:
		return func(b []byte) float64 { return float64(*(*float32)(ptr(b))) }, nil
	case core.Float64:
		return func(b []byte) float64 { return *(*float64)(ptr(b)) }, nil
	case core.Bool:
		return func(b []byte) float64 {
			if b[0] != 0 {
				return 1
			}
			return 0
		}, nil
	default:
		load, err := intLoader(dtype)
		if err != nil {
			return nil, err
		}
		return func(b []byte) float64 { return float64(load(b)) }, nil
	}
}

func floatStorer(dtype core.Dtype) (func([]byte, float64), error) {
	switch dtype {
	case core.Float16:
		return func(b []byte, v float64) {
			*(*uint16)(ptr(b)) = float16.Fromfloat32(float32(v)).Bits()
		}, nil
	case core.Float32:
		return func(b []byte, v float64) { *(*float32)(ptr(b)) = float32(v) }, nil
	case core.Float64:
		return func(b []byte, v float64) { *(*float64)(ptr(b)) = v }, nil
	case core.Bool:
		return func(b []byte, v float64) {
			// NaN is truthy, matching C-style bool casts.
			if v != 0 {
				b[0] = 1
			} else {
				b[0] = 0
			}
		}, nil
	default:
		store, err := intStorer(dtype)
		if err != nil {
			return nil, err
		}
		return func(b []byte, v float64) { store(b, int64(v)) }, nil
	}
}
