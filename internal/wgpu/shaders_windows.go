//go:build windows

package wgpu

import "fmt"

// WGSL kernels for elementwise ops over tightly packed f32 arrays. One
// invocation computes one output element; the uniform carries the element
// count so the trailing partial workgroup bails out.

const binaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> lhs: array<f32>;
@group(0) @binding(1) var<storage, read> rhs: array<f32>;
@group(0) @binding(2) var<storage, read_write> out: array<f32>;

struct Params {
    n: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.n) {
        return;
    }
    out[i] = %s;
}
`

const unaryShaderTemplate = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> out: array<f32>;

struct Params {
    n: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.n) {
        return;
    }
    out[i] = %s;
}
`

var binaryShaders = map[string]string{
	"add": fmt.Sprintf(binaryShaderTemplate, "lhs[i] + rhs[i]"),
	"sub": fmt.Sprintf(binaryShaderTemplate, "lhs[i] - rhs[i]"),
	"mul": fmt.Sprintf(binaryShaderTemplate, "lhs[i] * rhs[i]"),
	"div": fmt.Sprintf(binaryShaderTemplate, "lhs[i] / rhs[i]"),
}

// round is absent: WGSL rounds halfway cases to even while the host kernels
// round them away from zero, and the two paths must agree bit-for-bit.
var unaryShaders = map[string]string{
	"sqrt":  fmt.Sprintf(unaryShaderTemplate, "sqrt(src[i])"),
	"sin":   fmt.Sprintf(unaryShaderTemplate, "sin(src[i])"),
	"cos":   fmt.Sprintf(unaryShaderTemplate, "cos(src[i])"),
	"exp":   fmt.Sprintf(unaryShaderTemplate, "exp(src[i])"),
	"neg":   fmt.Sprintf(unaryShaderTemplate, "-src[i]"),
	"abs":   fmt.Sprintf(unaryShaderTemplate, "abs(src[i])"),
	"floor": fmt.Sprintf(unaryShaderTemplate, "floor(src[i])"),
	"ceil":  fmt.Sprintf(unaryShaderTemplate, "ceil(src[i])"),
	"trunc": fmt.Sprintf(unaryShaderTemplate, "trunc(src[i])"),
}
