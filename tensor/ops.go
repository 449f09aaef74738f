// Copyright 2025 Strata3D. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"

	"github.com/strata3d/strata/internal/core"
	"github.com/strata3d/strata/internal/kernel"
)

// Binary elementwise operations. Operands broadcast against each other and
// are implicitly promoted to a common numeric dtype before dispatch; the
// result lives on the operands' device. Dtype-domain violations inside the
// kernels (e.g. arithmetic on object dtypes) are fatal diagnostics, not
// recoverable errors.

// Add returns lhs + rhs.
func Add(lhs, rhs *Tensor) (*Tensor, error) {
	return arithOp(lhs, rhs, kernel.BinaryOpAdd)
}

// Sub returns lhs - rhs.
func Sub(lhs, rhs *Tensor) (*Tensor, error) {
	return arithOp(lhs, rhs, kernel.BinaryOpSub)
}

// Mul returns lhs * rhs.
func Mul(lhs, rhs *Tensor) (*Tensor, error) {
	return arithOp(lhs, rhs, kernel.BinaryOpMul)
}

// Div returns lhs / rhs. Integer division truncates; division by an integer
// zero faults the computation.
func Div(lhs, rhs *Tensor) (*Tensor, error) {
	return arithOp(lhs, rhs, kernel.BinaryOpDiv)
}

// Eq returns the boolean tensor lhs == rhs.
func Eq(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpEq)
}

// Ne returns the boolean tensor lhs != rhs.
func Ne(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpNe)
}

// Gt returns the boolean tensor lhs > rhs.
func Gt(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpGt)
}

// Lt returns the boolean tensor lhs < rhs.
func Lt(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpLt)
}

// Ge returns the boolean tensor lhs >= rhs.
func Ge(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpGe)
}

// Le returns the boolean tensor lhs <= rhs.
func Le(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpLe)
}

// LogicalAnd returns the boolean tensor (lhs != 0) && (rhs != 0).
func LogicalAnd(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpLogicalAnd)
}

// LogicalOr returns the boolean tensor (lhs != 0) || (rhs != 0).
func LogicalOr(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpLogicalOr)
}

// LogicalXor returns the boolean tensor (lhs != 0) != (rhs != 0).
func LogicalXor(lhs, rhs *Tensor) (*Tensor, error) {
	return booleanOp(lhs, rhs, kernel.BinaryOpLogicalXor)
}

// Unary elementwise operations.

// Sqrt returns the elementwise square root. Defined on float dtypes only.
func Sqrt(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpSqrt)
}

// Sin returns the elementwise sine. Defined on float dtypes only.
func Sin(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpSin)
}

// Cos returns the elementwise cosine. Defined on float dtypes only.
func Cos(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpCos)
}

// Exp returns the elementwise exponential. Defined on float dtypes only.
func Exp(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpExp)
}

// Neg returns the elementwise negation.
func Neg(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpNeg)
}

// Abs returns the elementwise absolute value.
func Abs(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpAbs)
}

// Floor rounds each element toward negative infinity. Identity on integers.
func Floor(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpFloor)
}

// Ceil rounds each element toward positive infinity. Identity on integers.
func Ceil(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpCeil)
}

// Round rounds each element to the nearest integer, halves away from zero.
// Identity on integers.
func Round(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpRound)
}

// Trunc rounds each element toward zero. Identity on integers.
func Trunc(src *Tensor) (*Tensor, error) {
	return unaryOp(src, kernel.UnaryOpTrunc)
}

// LogicalNot returns the boolean tensor src == 0.
func LogicalNot(src *Tensor) (*Tensor, error) {
	return unaryBoolOp(src, kernel.UnaryOpLogicalNot)
}

// IsNan returns the boolean tensor marking NaN elements. Float dtypes only.
func IsNan(src *Tensor) (*Tensor, error) {
	return unaryBoolOp(src, kernel.UnaryOpIsNan)
}

// IsInf returns the boolean tensor marking infinite elements. Float dtypes
// only.
func IsInf(src *Tensor) (*Tensor, error) {
	return unaryBoolOp(src, kernel.UnaryOpIsInf)
}

// IsFinite returns the boolean tensor marking finite elements. Float dtypes
// only.
func IsFinite(src *Tensor) (*Tensor, error) {
	return unaryBoolOp(src, kernel.UnaryOpIsFinite)
}

// Conversions.

// To returns a copy of t cast to the given dtype. Same-dtype conversion
// still copies.
func To(t *Tensor, dtype Dtype) (*Tensor, error) {
	dst, err := core.Empty(t.Shape(), dtype, t.Device())
	if err != nil {
		return nil, fmt.Errorf("to %s: %w", dtype, err)
	}
	kernel.Copy(t, dst)
	return dst, nil
}

// ToDevice returns a copy of t on the given device.
func ToDevice(t *Tensor, device Device) (*Tensor, error) {
	dst, err := core.Empty(t.Shape(), t.Dtype(), device)
	if err != nil {
		return nil, fmt.Errorf("to %s: %w", device, err)
	}
	kernel.Copy(t, dst)
	return dst, nil
}

// Copy copies src into an existing destination tensor, casting between
// dtypes and broadcasting src where the destination shape requires it. The
// destination may live on a different device.
func Copy(src, dst *Tensor) {
	kernel.Copy(src, dst)
}

// arithOp promotes both operands to their common dtype, broadcasts the
// shapes and dispatches the arithmetic kernel.
func arithOp(lhs, rhs *Tensor, op kernel.BinaryOpCode) (*Tensor, error) {
	l, r, dtype, release, err := promoted(lhs, rhs, op)
	if err != nil {
		return nil, err
	}
	defer release()

	shape, err := core.BroadcastShapes(lhs.Shape(), rhs.Shape())
	if err != nil {
		return nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	dst, err := core.Empty(shape, dtype, lhs.Device())
	if err != nil {
		return nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	kernel.BinaryEW(l, r, dst, op)
	return dst, nil
}

// booleanOp promotes both operands to their common dtype and dispatches a
// comparison or logical kernel with a boolean result.
func booleanOp(lhs, rhs *Tensor, op kernel.BinaryOpCode) (*Tensor, error) {
	l, r, _, release, err := promoted(lhs, rhs, op)
	if err != nil {
		return nil, err
	}
	defer release()

	shape, err := core.BroadcastShapes(lhs.Shape(), rhs.Shape())
	if err != nil {
		return nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	dst, err := core.Empty(shape, core.Bool, lhs.Device())
	if err != nil {
		return nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	kernel.BinaryEW(l, r, dst, op)
	return dst, nil
}

// promoted casts the operands to their common dtype. The release closure
// frees any temporaries the casts materialized.
func promoted(lhs, rhs *Tensor, op kernel.BinaryOpCode) (l, r *Tensor, dtype Dtype, release func(), err error) {
	if lhs.Device() != rhs.Device() {
		return nil, nil, Dtype{}, nil, fmt.Errorf("binary op %s: lhs is on %s but rhs is on %s",
			op, lhs.Device(), rhs.Device())
	}
	dtype, err = core.PromoteTypes(lhs.Dtype(), rhs.Dtype())
	if err != nil {
		return nil, nil, Dtype{}, nil, fmt.Errorf("binary op %s: %w", op, err)
	}

	var temps []*Tensor
	cast := func(t *Tensor) (*Tensor, error) {
		if t.Dtype() == dtype {
			return t, nil
		}
		c, err := To(t, dtype)
		if err != nil {
			return nil, err
		}
		temps = append(temps, c)
		return c, nil
	}
	release = func() {
		for _, t := range temps {
			t.Release()
		}
	}

	if l, err = cast(lhs); err != nil {
		release()
		return nil, nil, Dtype{}, nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	if r, err = cast(rhs); err != nil {
		release()
		return nil, nil, Dtype{}, nil, fmt.Errorf("binary op %s: %w", op, err)
	}
	return l, r, dtype, release, nil
}

func unaryOp(src *Tensor, op kernel.UnaryOpCode) (*Tensor, error) {
	dst, err := core.Empty(src.Shape(), src.Dtype(), src.Device())
	if err != nil {
		return nil, fmt.Errorf("unary op %s: %w", op, err)
	}
	kernel.UnaryEW(src, dst, op)
	return dst, nil
}

func unaryBoolOp(src *Tensor, op kernel.UnaryOpCode) (*Tensor, error) {
	dst, err := core.Empty(src.Shape(), core.Bool, src.Device())
	if err != nil {
		return nil, fmt.Errorf("unary op %s: %w", op, err)
	}
	kernel.UnaryEW(src, dst, op)
	return dst, nil
}
