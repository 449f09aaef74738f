package core

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ScalarBytes encodes a Go scalar value as the little-endian byte image of
// one element of the given dtype. Object dtypes accept a []byte of exactly
// the declared size and copy it opaquely.
func ScalarBytes(value any, dtype Dtype) ([]byte, error) {
	if dtype.IsObject() {
		blob, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("object dtype %s requires a []byte value, got %T", dtype, value)
		}
		if len(blob) != dtype.ByteSize() {
			return nil, fmt.Errorf("object dtype %s requires %d bytes, got %d",
				dtype, dtype.ByteSize(), len(blob))
		}
		out := make([]byte, len(blob))
		copy(out, blob)
		return out, nil
	}

	if dtype == Bool {
		b, ok := toBool(value)
		if !ok {
			return nil, fmt.Errorf("cannot convert %T to %s", value, dtype)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	}

	f, ok := toFloat64(value)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to %s", value, dtype)
	}

	out := make([]byte, dtype.ByteSize())
	switch dtype {
	case Float16:
		binary.LittleEndian.PutUint16(out, float16.Fromfloat32(float32(f)).Bits())
	case Float32:
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(f)))
	case Float64:
		binary.LittleEndian.PutUint64(out, math.Float64bits(f))
	case Int8:
		out[0] = byte(int8(f))
	case Int16:
		binary.LittleEndian.PutUint16(out, uint16(int16(f)))
	case Int32:
		binary.LittleEndian.PutUint32(out, uint32(int32(f)))
	case Int64:
		binary.LittleEndian.PutUint64(out, uint64(int64(f)))
	case UInt8:
		out[0] = uint8(f)
	case UInt16:
		binary.LittleEndian.PutUint16(out, uint16(f))
	case UInt32:
		binary.LittleEndian.PutUint32(out, uint32(f))
	case UInt64:
		binary.LittleEndian.PutUint64(out, uint64(f))
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
	return out, nil
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	default:
		f, ok := toFloat64(value)
		return f != 0, ok
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
