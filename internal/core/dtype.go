// Package core provides the strided tensor data model for the Strata runtime:
// dtypes, devices, shared buffers, tensors and the broadcasting indexer.
package core

import "fmt"

// DtypeCode classifies a dtype into a scalar family.
type DtypeCode uint8

// Scalar families.
const (
	DtypeCodeUndefined DtypeCode = iota
	DtypeCodeBool
	DtypeCodeInt
	DtypeCodeUInt
	DtypeCodeFloat
	DtypeCodeObject
)

// Dtype is a scalar element type tag with a fixed byte width.
// The byte width is immutable once the value is constructed; Object dtypes
// carry a caller-declared width and are copied/compared as opaque blobs.
type Dtype struct {
	code     DtypeCode
	byteSize int
}

// Predefined dtypes.
var (
	Undefined = Dtype{DtypeCodeUndefined, 0}
	Float16   = Dtype{DtypeCodeFloat, 2}
	Float32   = Dtype{DtypeCodeFloat, 4}
	Float64   = Dtype{DtypeCodeFloat, 8}
	Int8      = Dtype{DtypeCodeInt, 1}
	Int16     = Dtype{DtypeCodeInt, 2}
	Int32     = Dtype{DtypeCodeInt, 4}
	Int64     = Dtype{DtypeCodeInt, 8}
	UInt8     = Dtype{DtypeCodeUInt, 1}
	UInt16    = Dtype{DtypeCodeUInt, 2}
	UInt32    = Dtype{DtypeCodeUInt, 4}
	UInt64    = Dtype{DtypeCodeUInt, 8}
	Bool      = Dtype{DtypeCodeBool, 1}
)

// ObjectDtype returns an opaque dtype of the given byte size.
// Object elements are never interpreted numerically.
func ObjectDtype(byteSize int) Dtype {
	if byteSize <= 0 {
		panic(fmt.Sprintf("object dtype byte size must be positive, got %d", byteSize))
	}
	return Dtype{DtypeCodeObject, byteSize}
}

// ByteSize returns the fixed byte width of one element.
func (d Dtype) ByteSize() int {
	return d.byteSize
}

// Code returns the scalar family of the dtype.
func (d Dtype) Code() DtypeCode {
	return d.code
}

// IsObject reports whether the dtype is an opaque blob type.
func (d Dtype) IsObject() bool {
	return d.code == DtypeCodeObject
}

// IsFloat reports whether the dtype is a floating-point type (including Float16).
func (d Dtype) IsFloat() bool {
	return d.code == DtypeCodeFloat
}

// IsNumeric reports whether the dtype participates in arithmetic promotion.
func (d Dtype) IsNumeric() bool {
	switch d.code {
	case DtypeCodeInt, DtypeCodeUInt, DtypeCodeFloat:
		return true
	default:
		return false
	}
}

// String returns a human-readable dtype name.
func (d Dtype) String() string {
	switch d {
	case Undefined:
		return "undefined"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Bool:
		return "bool"
	}
	if d.code == DtypeCodeObject {
		return fmt.Sprintf("object[%d]", d.byteSize)
	}
	return "unknown"
}

// promotionRank orders scalar families from weakest to strongest:
// bool < unsigned < signed < float.
func promotionRank(code DtypeCode) int {
	switch code {
	case DtypeCodeBool:
		return 0
	case DtypeCodeUInt:
		return 1
	case DtypeCodeInt:
		return 2
	case DtypeCodeFloat:
		return 3
	default:
		return -1
	}
}

// PromoteTypes returns the widest common dtype of a and b under the implicit
// numeric promotion lattice. It returns an error for object/undefined dtypes,
// which never promote.
func PromoteTypes(a, b Dtype) (Dtype, error) {
	if a == b {
		return a, nil
	}
	ra, rb := promotionRank(a.code), promotionRank(b.code)
	if ra < 0 || rb < 0 {
		return Undefined, fmt.Errorf("cannot promote dtypes %s and %s", a, b)
	}
	wide := a
	if rb > ra || (rb == ra && b.byteSize > a.byteSize) {
		wide = b
	}
	// Bool promoted against anything numeric takes the numeric side.
	if wide.code == DtypeCodeBool {
		if a.code != DtypeCodeBool {
			wide = a
		} else if b.code != DtypeCodeBool {
			wide = b
		}
	}
	// Widen to the larger byte size within the winning family.
	if a.code == wide.code && a.byteSize > wide.byteSize {
		wide = a
	}
	if b.code == wide.code && b.byteSize > wide.byteSize {
		wide = b
	}
	return wide, nil
}

// Scalar is the constraint for Go types that map onto a non-object dtype.
type Scalar interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~bool
}

// DtypeOf returns the dtype tag for a Go scalar type.
func DtypeOf[T Scalar]() Dtype {
	var v T
	switch any(v).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return UInt8
	case uint16:
		return UInt16
	case uint32:
		return UInt32
	case uint64:
		return UInt64
	case bool:
		return Bool
	default:
		panic("unsupported scalar type")
	}
}
