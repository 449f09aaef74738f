package kernel

import (
	"fmt"

	"github.com/strata3d/strata/internal/core"
)

// launchUnaryEWKernel drives fn once per output element through the indexer
// under the CPU parallel-for primitive.
func launchUnaryEWKernel(ix *core.Indexer, fn unaryFn) {
	ParallelFor(ix.NumWorkloads(), SmallOpGrainSize, func(i int) {
		fn(ix.InputPtr(0, i), ix.OutputPtr(i))
	})
}

// CopyCPU copies src into dst on the host, casting between dtypes and
// broadcasting src where needed. Contiguous same-shape same-dtype pairs
// reduce to a single raw memory copy; a 1-element source broadcast into a
// contiguous destination takes a scalar-fill fast path that skips the
// general indexer.
func CopyCPU(src, dst *core.Tensor) {
	if src.Device() != dst.Device() {
		panic(fmt.Sprintf("copy: src is on %s but dst is on %s; cross-device copies go through Copy",
			src.Device(), dst.Device()))
	}

	if src.IsContiguous() && dst.IsContiguous() &&
		src.Shape().Equal(dst.Shape()) && src.Dtype() == dst.Dtype() {
		core.Memcpy(dst.Buffer(), dst.ByteOffset(), src.Buffer(), src.ByteOffset(), src.NumBytes())
		return
	}

	if dst.NumElements() > 1 && dst.IsContiguous() &&
		src.NumElements() == 1 && !src.Dtype().IsObject() {
		scalarFill(src, dst)
		return
	}

	ix, err := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyNone)
	if err != nil {
		panic(fmt.Sprintf("copy: %v", err))
	}
	if src.Dtype().IsObject() {
		objectByteSize := src.Dtype().ByteSize()
		launchUnaryEWKernel(ix, func(s, d []byte) {
			copy(d[:objectByteSize], s[:objectByteSize])
		})
		core.InvalidateHostMutation(dst.Buffer())
		return
	}
	fn, err := castKernel(src.Dtype(), dst.Dtype())
	if err != nil {
		panic(fmt.Sprintf("copy: %v", err))
	}
	launchUnaryEWKernel(ix, fn)
	core.InvalidateHostMutation(dst.Buffer())
}

// scalarFill writes the single src element, cast to dst's dtype, to every
// slot of the contiguous destination.
func scalarFill(src, dst *core.Tensor) {
	fn, err := castKernel(src.Dtype(), dst.Dtype())
	if err != nil {
		panic(fmt.Sprintf("copy: %v", err))
	}
	elem := make([]byte, dst.Dtype().ByteSize())
	srcIdx := make([]int, len(src.Shape()))
	fn(src.ElementBytes(srcIdx...), elem)

	size := dst.Dtype().ByteSize()
	out := dst.Buffer().Data()[dst.ByteOffset():]
	ParallelFor(dst.NumElements(), SmallOpGrainSize, func(i int) {
		copy(out[i*size:(i+1)*size], elem)
	})
	core.InvalidateHostMutation(dst.Buffer())
}

// UnaryEWCPU applies the unary elementwise op to src, writing into dst.
// Float-domain ops validate that src is Float32/Float64; logical-not accepts
// either a same-dtype or a boolean destination. Any unsupported op/dtype
// combination fails loudly rather than silently coercing.
func UnaryEWCPU(src, dst *core.Tensor, op UnaryOpCode) {
	srcDtype, dstDtype := src.Dtype(), dst.Dtype()

	switch {
	case op == UnaryOpLogicalNot:
		var policy core.DtypePolicy
		var boolOut bool
		switch {
		case dstDtype == srcDtype:
			policy, boolOut = core.DtypePolicyAllSame, false
		case dstDtype == core.Bool:
			policy, boolOut = core.DtypePolicyInputSameOutputBool, true
		default:
			panic(fmt.Sprintf("unary op %s: output dtype must be bool or the input dtype %s, got %s",
				op, srcDtype, dstDtype))
		}
		fn, err := logicalNotKernel(srcDtype, boolOut)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		ix, err := core.NewIndexer([]*core.Tensor{src}, dst, policy)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		launchUnaryEWKernel(ix, fn)

	case op == UnaryOpIsNan || op == UnaryOpIsInf || op == UnaryOpIsFinite:
		fn, err := unaryDispatch(srcDtype, op)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		ix, err := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyInputSameOutputBool)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		launchUnaryEWKernel(ix, fn)

	default:
		fn, err := unaryDispatch(srcDtype, op)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		ix, err := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyAllSame)
		if err != nil {
			panic(fmt.Sprintf("unary op %s: %v", op, err))
		}
		launchUnaryEWKernel(ix, fn)
	}
	core.InvalidateHostMutation(dst.Buffer())
}
