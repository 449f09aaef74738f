package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/strata3d/strata/internal/core"
)

// launchBinaryEWKernel drives fn once per output element through the indexer
// under the CPU parallel-for primitive.
func launchBinaryEWKernel(ix *core.Indexer, fn binaryFn) {
	ParallelFor(ix.NumWorkloads(), SmallOpGrainSize, func(i int) {
		fn(ix.InputPtr(0, i), ix.InputPtr(1, i), ix.OutputPtr(i))
	})
}

// BinaryEWCPU applies the binary elementwise op to (lhs, rhs), writing into
// dst. Operands must share a dtype (callers promote beforehand); boolean
// family ops accept either a same-dtype or a boolean destination.
func BinaryEWCPU(lhs, rhs, dst *core.Tensor, op BinaryOpCode) {
	srcDtype, dstDtype := lhs.Dtype(), dst.Dtype()

	if op.isBooleanOp() {
		var policy core.DtypePolicy
		var sameTyped bool
		switch {
		case dstDtype == srcDtype:
			// In-place style: e.g. logical_and(a, b, out=a) on floats.
			policy, sameTyped = core.DtypePolicyAllSame, true
		case dstDtype == core.Bool:
			policy, sameTyped = core.DtypePolicyInputSameOutputBool, false
		default:
			panic(fmt.Sprintf("binary op %s: output dtype must be bool or the input dtype %s, got %s",
				op, srcDtype, dstDtype))
		}
		fn, err := boolDispatch(srcDtype, op, sameTyped)
		if err != nil {
			panic(fmt.Sprintf("binary op %s: %v", op, err))
		}
		ix, err := core.NewIndexer([]*core.Tensor{lhs, rhs}, dst, policy)
		if err != nil {
			panic(fmt.Sprintf("binary op %s: %v", op, err))
		}
		launchBinaryEWKernel(ix, fn)
		core.InvalidateHostMutation(dst.Buffer())
		return
	}

	if tryVectorizedFloat64(lhs, rhs, dst, op) {
		core.InvalidateHostMutation(dst.Buffer())
		return
	}

	fn, err := arithDispatch(srcDtype, op)
	if err != nil {
		panic(fmt.Sprintf("binary op %s: %v", op, err))
	}
	ix, err := core.NewIndexer([]*core.Tensor{lhs, rhs}, dst, core.DtypePolicyAllSame)
	if err != nil {
		panic(fmt.Sprintf("binary op %s: %v", op, err))
	}
	launchBinaryEWKernel(ix, fn)
	core.InvalidateHostMutation(dst.Buffer())
}

// tryVectorizedFloat64 routes contiguous same-shape float64 arithmetic
// through gonum's vectorized slice ops, skipping the per-element indexer.
func tryVectorizedFloat64(lhs, rhs, dst *core.Tensor, op BinaryOpCode) bool {
	if lhs.Dtype() != core.Float64 || rhs.Dtype() != core.Float64 || dst.Dtype() != core.Float64 {
		return false
	}
	if !lhs.IsContiguous() || !rhs.IsContiguous() || !dst.IsContiguous() {
		return false
	}
	if !lhs.Shape().Equal(rhs.Shape()) || !lhs.Shape().Equal(dst.Shape()) {
		return false
	}
	a, b, d := lhs.AsFloat64(), rhs.AsFloat64(), dst.AsFloat64()
	switch op {
	case BinaryOpAdd:
		floats.AddTo(d, a, b)
	case BinaryOpSub:
		floats.SubTo(d, a, b)
	case BinaryOpMul:
		floats.MulTo(d, a, b)
	case BinaryOpDiv:
		floats.DivTo(d, a, b)
	default:
		return false
	}
	return true
}
