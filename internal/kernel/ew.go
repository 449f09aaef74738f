package kernel

import (
	"errors"
	"fmt"

	"github.com/strata3d/strata/internal/core"
	"github.com/strata3d/strata/internal/wgpu"
)

// Copy copies src into dst, casting and broadcasting as needed. Same-device
// pairs dispatch to the device kernel; cross-device pairs stage through
// contiguous intermediates and a raw buffer transfer.
func Copy(src, dst *core.Tensor) {
	if src.Device() == dst.Device() {
		copySameDevice(src, dst)
		return
	}
	crossDeviceCopy(src, dst)
}

func copySameDevice(src, dst *core.Tensor) {
	switch dst.Device().Kind {
	case core.KindCPU:
		CopyCPU(src, dst)
	case core.KindWebGPU:
		CopyWebGPU(src, dst)
	default:
		panic(fmt.Sprintf("copy: unsupported device %s", dst.Device()))
	}
}

// crossDeviceCopy moves data between devices. The transfer itself is a plain
// buffer copy, so both ends must be contiguous with dst's dtype; casting and
// broadcasting are resolved on the respective device first.
func crossDeviceCopy(src, dst *core.Tensor) {
	staged := src
	if !staged.IsContiguous() || staged.Dtype() != dst.Dtype() || !staged.Shape().Equal(dst.Shape()) {
		tmp, err := core.Empty(dst.Shape(), dst.Dtype(), src.Device())
		if err != nil {
			panic(fmt.Sprintf("copy: %v", err))
		}
		defer tmp.Release()
		copySameDevice(src, tmp)
		staged = tmp
	}

	if dst.IsContiguous() {
		core.Memcpy(dst.Buffer(), dst.ByteOffset(), staged.Buffer(), staged.ByteOffset(), staged.NumBytes())
		return
	}

	landed, err := core.Empty(dst.Shape(), dst.Dtype(), dst.Device())
	if err != nil {
		panic(fmt.Sprintf("copy: %v", err))
	}
	defer landed.Release()
	core.Memcpy(landed.Buffer(), landed.ByteOffset(), staged.Buffer(), staged.ByteOffset(), staged.NumBytes())
	copySameDevice(landed, dst)
}

// UnaryEW applies the unary elementwise op on src's device.
func UnaryEW(src, dst *core.Tensor, op UnaryOpCode) {
	switch dst.Device().Kind {
	case core.KindCPU:
		UnaryEWCPU(src, dst, op)
	case core.KindWebGPU:
		UnaryEWWebGPU(src, dst, op)
	default:
		panic(fmt.Sprintf("unary op %s: unsupported device %s", op, dst.Device()))
	}
}

// BinaryEW applies the binary elementwise op on dst's device.
func BinaryEW(lhs, rhs, dst *core.Tensor, op BinaryOpCode) {
	switch dst.Device().Kind {
	case core.KindCPU:
		BinaryEWCPU(lhs, rhs, dst, op)
	case core.KindWebGPU:
		BinaryEWWebGPU(lhs, rhs, dst, op)
	default:
		panic(fmt.Sprintf("binary op %s: unsupported device %s", op, dst.Device()))
	}
}

// CopyWebGPU copies between tensors resident on the same WebGPU device.
// Every buffer keeps an authoritative host image, so the copy runs on the
// host; dst's device-side buffer is refreshed at the next kernel launch.
func CopyWebGPU(src, dst *core.Tensor) {
	requireSameWebGPU("copy", src.Device(), dst.Device())
	CopyCPU(src, dst)
}

// UnaryEWWebGPU applies the unary elementwise op on a WebGPU device. Ops with
// shader coverage run on the GPU; the rest compute over the host image with
// the CPU kernels and re-upload lazily.
func UnaryEWWebGPU(src, dst *core.Tensor, op UnaryOpCode) {
	requireSameWebGPU(fmt.Sprintf("unary op %s", op), src.Device(), dst.Device())
	err := wgpu.LaunchUnaryEW(src, dst, op.String())
	if err == nil {
		return
	}
	if !errors.Is(err, wgpu.ErrNotAccelerated) {
		panic(fmt.Sprintf("unary op %s: %v", op, err))
	}
	UnaryEWCPU(src, dst, op)
}

// BinaryEWWebGPU applies the binary elementwise op on a WebGPU device, with
// the same shader-or-host split as UnaryEWWebGPU.
func BinaryEWWebGPU(lhs, rhs, dst *core.Tensor, op BinaryOpCode) {
	requireSameWebGPU(fmt.Sprintf("binary op %s", op), lhs.Device(), dst.Device())
	requireSameWebGPU(fmt.Sprintf("binary op %s", op), rhs.Device(), dst.Device())
	err := wgpu.LaunchBinaryEW(lhs, rhs, dst, op.String())
	if err == nil {
		return
	}
	if !errors.Is(err, wgpu.ErrNotAccelerated) {
		panic(fmt.Sprintf("binary op %s: %v", op, err))
	}
	BinaryEWCPU(lhs, rhs, dst, op)
}

func requireSameWebGPU(what string, a, b core.Device) {
	if a != b || a.Kind != core.KindWebGPU {
		panic(fmt.Sprintf("%s: operands must share one webgpu device, got %s and %s", what, a, b))
	}
}
