package kernel

// UnaryOpCode identifies a unary elementwise operation.
type UnaryOpCode int

// Unary elementwise operations.
const (
	UnaryOpSqrt UnaryOpCode = iota
	UnaryOpSin
	UnaryOpCos
	UnaryOpNeg
	UnaryOpExp
	UnaryOpAbs
	UnaryOpFloor
	UnaryOpCeil
	UnaryOpRound
	UnaryOpTrunc
	UnaryOpLogicalNot
	UnaryOpIsNan
	UnaryOpIsInf
	UnaryOpIsFinite
)

// String returns the operation name.
func (op UnaryOpCode) String() string {
	switch op {
	case UnaryOpSqrt:
		return "sqrt"
	case UnaryOpSin:
		return "sin"
	case UnaryOpCos:
		return "cos"
	case UnaryOpNeg:
		return "neg"
	case UnaryOpExp:
		return "exp"
	case UnaryOpAbs:
		return "abs"
	case UnaryOpFloor:
		return "floor"
	case UnaryOpCeil:
		return "ceil"
	case UnaryOpRound:
		return "round"
	case UnaryOpTrunc:
		return "trunc"
	case UnaryOpLogicalNot:
		return "logical_not"
	case UnaryOpIsNan:
		return "isnan"
	case UnaryOpIsInf:
		return "isinf"
	case UnaryOpIsFinite:
		return "isfinite"
	default:
		return "unknown"
	}
}

// requiresFloat reports whether the op is only defined on the floating-point
// domain.
func (op UnaryOpCode) requiresFloat() bool {
	switch op {
	case UnaryOpSqrt, UnaryOpSin, UnaryOpCos, UnaryOpExp,
		UnaryOpIsNan, UnaryOpIsInf, UnaryOpIsFinite:
		return true
	default:
		return false
	}
}

// BinaryOpCode identifies a binary elementwise operation.
type BinaryOpCode int

// Binary elementwise operations.
const (
	BinaryOpAdd BinaryOpCode = iota
	BinaryOpSub
	BinaryOpMul
	BinaryOpDiv
	BinaryOpLogicalAnd
	BinaryOpLogicalOr
	BinaryOpLogicalXor
	BinaryOpGt
	BinaryOpLt
	BinaryOpGe
	BinaryOpLe
	BinaryOpEq
	BinaryOpNe
)

// String returns the operation name.
func (op BinaryOpCode) String() string {
	switch op {
	case BinaryOpAdd:
		return "add"
	case BinaryOpSub:
		return "sub"
	case BinaryOpMul:
		return "mul"
	case BinaryOpDiv:
		return "div"
	case BinaryOpLogicalAnd:
		return "logical_and"
	case BinaryOpLogicalOr:
		return "logical_or"
	case BinaryOpLogicalXor:
		return "logical_xor"
	case BinaryOpGt:
		return "gt"
	case BinaryOpLt:
		return "lt"
	case BinaryOpGe:
		return "ge"
	case BinaryOpLe:
		return "le"
	case BinaryOpEq:
		return "eq"
	case BinaryOpNe:
		return "ne"
	default:
		return "unknown"
	}
}

// isBooleanOp reports whether the op belongs to the boolean family (logical
// ops and comparisons), whose output is boolean by default but may be the
// input dtype for in-place style calls.
func (op BinaryOpCode) isBooleanOp() bool {
	switch op {
	case BinaryOpLogicalAnd, BinaryOpLogicalOr, BinaryOpLogicalXor,
		BinaryOpGt, BinaryOpLt, BinaryOpGe, BinaryOpLe, BinaryOpEq, BinaryOpNe:
		return true
	default:
		return false
	}
}
