package kernel

import (
	"fmt"
	"math"

	"github.com/strata3d/strata/internal/core"
)

// number covers the Go types of every dtype that participates in arithmetic
// kernels. Bool operands are dispatched as uint8 over their 0/1 byte image.
type number interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// signedOrFloat covers types where negation and absolute value are
// meaningful without wrapping surprises. Unsigned dtypes still dispatch
// through these kernels with Go's wrapping semantics, matching the C++
// original.
type signedOrFloat interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64
}

func load[T number](b []byte) T {
	return *(*T)(ptr(b))
}

func store[T number](b []byte, v T) {
	*(*T)(ptr(b)) = v
}

func storeBool(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

// ewDtypes lists the dtypes elementwise kernels are generated for. Float16
// is a storage dtype (copy/cast only) and Object is opaque, so neither
// appears here.
func ewDtypeSupported(dtype core.Dtype) bool {
	switch dtype {
	case core.Bool, core.Int8, core.Int16, core.Int32, core.Int64,
		core.UInt8, core.UInt16, core.UInt32, core.UInt64,
		core.Float32, core.Float64:
		return true
	default:
		return false
	}
}

// arithKernel instantiates the typed kernel for add/sub/mul/div.
func arithKernel[T number](op BinaryOpCode) binaryFn {
	switch op {
	case BinaryOpAdd:
		return func(l, r, d []byte) { store(d, load[T](l)+load[T](r)) }
	case BinaryOpSub:
		return func(l, r, d []byte) { store(d, load[T](l)-load[T](r)) }
	case BinaryOpMul:
		return func(l, r, d []byte) { store(d, load[T](l)*load[T](r)) }
	case BinaryOpDiv:
		return func(l, r, d []byte) { store(d, load[T](l)/load[T](r)) }
	default:
		return nil
	}
}

// arithDispatch resolves the arithmetic kernel for a dtype tag.
func arithDispatch(dtype core.Dtype, op BinaryOpCode) (binaryFn, error) {
	var fn binaryFn
	switch dtype {
	case core.Float32:
		fn = arithKernel[float32](op)
	case core.Float64:
		fn = arithKernel[float64](op)
	case core.Int8:
		fn = arithKernel[int8](op)
	case core.Int16:
		fn = arithKernel[int16](op)
	case core.Int32:
		fn = arithKernel[int32](op)
	case core.Int64:
		fn = arithKernel[int64](op)
	case core.UInt8:
		fn = arithKernel[uint8](op)
	case core.UInt16:
		fn = arithKernel[uint16](op)
	case core.UInt32:
		fn = arithKernel[uint32](op)
	case core.UInt64:
		fn = arithKernel[uint64](op)
	default:
		return nil, fmt.Errorf("binary op %s does not support dtype %s", op, dtype)
	}
	if fn == nil {
		return nil, fmt.Errorf("binary op %s is not an arithmetic op", op)
	}
	return fn, nil
}

// boolKernel instantiates the typed kernel for the boolean op family
// (logical ops and comparisons). sameTyped selects same-dtype output (0/1
// stored as T) instead of the default boolean output.
func boolKernel[T number](op BinaryOpCode, sameTyped bool) binaryFn {
	cmp := func(l, r []byte) bool {
		switch op {
		case BinaryOpLogicalAnd:
			return load[T](l) != 0 && load[T](r) != 0
		case BinaryOpLogicalOr:
			return load[T](l) != 0 || load[T](r) != 0
		case BinaryOpLogicalXor:
			return (load[T](l) != 0) != (load[T](r) != 0)
		case BinaryOpGt:
			return load[T](l) > load[T](r)
		case BinaryOpLt:
			return load[T](l) < load[T](r)
		case BinaryOpGe:
			return load[T](l) >= load[T](r)
		case BinaryOpLe:
			return load[T](l) <= load[T](r)
		case BinaryOpEq:
			return load[T](l) == load[T](r)
		case BinaryOpNe:
			return load[T](l) != load[T](r)
		default:
			panic(fmt.Sprintf("boolKernel: %s is not a boolean op", op))
		}
	}
	if sameTyped {
		return func(l, r, d []byte) {
			if cmp(l, r) {
				store(d, T(1))
			} else {
				store(d, T(0))
			}
		}
	}
	return func(l, r, d []byte) {
		storeBool(d, cmp(l, r))
	}
}

// boolDispatch resolves the boolean-family kernel for a dtype tag.
// Bool tensors dispatch over their raw 0/1 byte image as uint8.
func boolDispatch(dtype core.Dtype, op BinaryOpCode, sameTyped bool) (binaryFn, error) {
	switch dtype {
	case core.Bool, core.UInt8:
		return boolKernel[uint8](op, sameTyped), nil
	case core.Float32:
		return boolKernel[float32](op, sameTyped), nil
	case core.Float64:
		return boolKernel[float64](op, sameTyped), nil
	case core.Int8:
		return boolKernel[int8](op, sameTyped), nil
	case core.Int16:
		return boolKernel[int16](op, sameTyped), nil
	case core.Int32:
		return boolKernel[int32](op, sameTyped), nil
	case core.Int64:
		return boolKernel[int64](op, sameTyped), nil
	case core.UInt16:
		return boolKernel[uint16](op, sameTyped), nil
	case core.UInt32:
		return boolKernel[uint32](op, sameTyped), nil
	case core.UInt64:
		return boolKernel[uint64](op, sameTyped), nil
	default:
		return nil, fmt.Errorf("binary op %s does not support dtype %s", op, dtype)
	}
}

// floatUnaryKernel instantiates the float-domain unary kernels.
func floatUnaryKernel[T ~float32 | ~float64](op UnaryOpCode) unaryFn {
	apply := func(f func(float64) float64) unaryFn {
		return func(s, d []byte) { store(d, T(f(float64(load[T](s))))) }
	}
	switch op {
	case UnaryOpSqrt:
		return apply(math.Sqrt)
	case UnaryOpSin:
		return apply(math.Sin)
	case UnaryOpCos:
		return apply(math.Cos)
	case UnaryOpExp:
		return apply(math.Exp)
	case UnaryOpIsNan:
		return func(s, d []byte) { storeBool(d, math.IsNaN(float64(load[T](s)))) }
	case UnaryOpIsInf:
		return func(s, d []byte) { storeBool(d, math.IsInf(float64(load[T](s)), 0)) }
	case UnaryOpIsFinite:
		return func(s, d []byte) {
			v := float64(load[T](s))
			storeBool(d, !math.IsNaN(v) && !math.IsInf(v, 0))
		}
	default:
		return nil
	}
}

// numericUnaryKernel instantiates neg/abs/floor/ceil/round/trunc for one
// numeric dtype. Rounding ops are the identity on integer dtypes.
func numericUnaryKernel[T number](op UnaryOpCode, isFloat bool) unaryFn {
	switch op {
	case UnaryOpNeg:
		return func(s, d []byte) { store(d, -load[T](s)) }
	case UnaryOpAbs:
		return func(s, d []byte) {
			v := load[T](s)
			if v < 0 {
				v = -v
			}
			store(d, v)
		}
	case UnaryOpFloor, UnaryOpCeil, UnaryOpRound, UnaryOpTrunc:
		if !isFloat {
			return func(s, d []byte) { store(d, load[T](s)) }
		}
		var f func(float64) float64
		switch op {
		case UnaryOpFloor:
			f = math.Floor
		case UnaryOpCeil:
			f = math.Ceil
		case UnaryOpRound:
			f = math.Round
		default:
			f = math.Trunc
		}
		return func(s, d []byte) { store(d, T(f(float64(load[T](s))))) }
	default:
		return nil
	}
}

// unaryDispatch resolves the typed kernel for a numeric unary op.
func unaryDispatch(dtype core.Dtype, op UnaryOpCode) (unaryFn, error) {
	if op.requiresFloat() {
		switch dtype {
		case core.Float32:
			return floatUnaryKernel[float32](op), nil
		case core.Float64:
			return floatUnaryKernel[float64](op), nil
		default:
			return nil, fmt.Errorf("unary op %s only supports float32 and float64, but %s is used",
				op, dtype)
		}
	}
	var fn unaryFn
	switch dtype {
	case core.Float32:
		fn = numericUnaryKernel[float32](op, true)
	case core.Float64:
		fn = numericUnaryKernel[float64](op, true)
	case core.Int8:
		fn = numericUnaryKernel[int8](op, false)
	case core.Int16:
		fn = numericUnaryKernel[int16](op, false)
	case core.Int32:
		fn = numericUnaryKernel[int32](op, false)
	case core.Int64:
		fn = numericUnaryKernel[int64](op, false)
	case core.UInt8:
		fn = numericUnaryKernel[uint8](op, false)
	case core.UInt16:
		fn = numericUnaryKernel[uint16](op, false)
	case core.UInt32:
		fn = numericUnaryKernel[uint32](op, false)
	case core.UInt64:
		fn = numericUnaryKernel[uint64](op, false)
	default:
		return nil, fmt.Errorf("unary op %s does not support dtype %s", op, dtype)
	}
	if fn == nil {
		return nil, fmt.Errorf("unimplemented unary op %s", op)
	}
	return fn, nil
}

// logicalNotKernel resolves logical-not over the input dtype, writing either
// a same-typed 0/1 or a boolean result.
func logicalNotKernel(dtype core.Dtype, boolOut bool) (unaryFn, error) {
	load, err := floatLoader(dtype)
	if err != nil {
		return nil, fmt.Errorf("unary op logical_not does not support dtype %s", dtype)
	}
	if boolOut {
		return func(s, d []byte) { storeBool(d, load(s) == 0) }, nil
	}
	storeSame, err := floatStorer(dtype)
	if err != nil {
		return nil, err
	}
	return func(s, d []byte) {
		if load(s) == 0 {
			storeSame(d, 1)
		} else {
			storeSame(d, 0)
		}
	}, nil
}
