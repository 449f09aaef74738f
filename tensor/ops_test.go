// Copyright 2025 Strata3D. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromSlice[T Scalar](t *testing.T, data []T, shape Shape) *Tensor {
	t.Helper()
	ts, err := FromSlice(data, shape, CPU)
	require.NoError(t, err)
	return ts
}

func TestAddBroadcast(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3}, Shape{3, 1})
	defer a.Release()
	b := fromSlice(t, []float32{10, 20, 30, 40}, Shape{1, 4})
	defer b.Release()

	out, err := Add(a, b)
	require.NoError(t, err)
	defer out.Release()

	require.True(t, out.Shape().Equal(Shape{3, 4}))
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			want := float32(i+1) + float32((j+1)*10)
			assert.Equal(t, want, At[float32](out, i, j))
		}
	}
}

func TestArithmeticPromotesDtypes(t *testing.T) {
	ints := fromSlice(t, []int32{1, 2, 3}, Shape{3})
	defer ints.Release()
	floats := fromSlice(t, []float64{0.5, 0.5, 0.5}, Shape{3})
	defer floats.Release()

	out, err := Mul(ints, floats)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, Float64, out.Dtype())
	for i, want := range []float64{0.5, 1, 1.5} {
		assert.Equal(t, want, At[float64](out, i))
	}
}

func TestComparisonReturnsBool(t *testing.T) {
	a := fromSlice(t, []int32{1, 5, 3}, Shape{3})
	defer a.Release()
	b := fromSlice(t, []float32{2, 2, 3}, Shape{3})
	defer b.Release()

	// Mixed dtypes promote before comparing.
	out, err := Gt(a, b)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, Bool, out.Dtype())
	for i, want := range []bool{false, true, false} {
		assert.Equal(t, want, At[bool](out, i))
	}
}

func TestLogicalOpsOnBool(t *testing.T) {
	a := fromSlice(t, []bool{true, true, false}, Shape{3})
	defer a.Release()
	b := fromSlice(t, []bool{true, false, false}, Shape{3})
	defer b.Release()

	and, err := LogicalAnd(a, b)
	require.NoError(t, err)
	defer and.Release()
	or, err := LogicalOr(a, b)
	require.NoError(t, err)
	defer or.Release()
	not, err := LogicalNot(a)
	require.NoError(t, err)
	defer not.Release()

	for i := 0; i < 3; i++ {
		assert.Equal(t, At[bool](a, i) && At[bool](b, i), At[bool](and, i))
		assert.Equal(t, At[bool](a, i) || At[bool](b, i), At[bool](or, i))
		assert.Equal(t, !At[bool](a, i), At[bool](not, i))
	}
}

func TestUnaryOps(t *testing.T) {
	src := fromSlice(t, []float64{4, 9, 16}, Shape{3})
	defer src.Release()

	out, err := Sqrt(src)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, Float64, out.Dtype())
	for i, want := range []float64{2, 3, 4} {
		assert.Equal(t, want, At[float64](out, i))
	}
}

func TestIsNanClassifies(t *testing.T) {
	src := fromSlice(t, []float64{1, math.NaN(), math.Inf(1)}, Shape{3})
	defer src.Release()

	out, err := IsNan(src)
	require.NoError(t, err)
	defer out.Release()

	require.Equal(t, Bool, out.Dtype())
	assert.False(t, At[bool](out, 0))
	assert.True(t, At[bool](out, 1))
	assert.False(t, At[bool](out, 2))
}

func TestBroadcastErrorSurfaces(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3}, Shape{3})
	defer a.Release()
	b := fromSlice(t, []float32{1, 2, 3, 4}, Shape{4})
	defer b.Release()

	_, err := Add(a, b)
	assert.Error(t, err)
}

func TestToCastRoundTrip(t *testing.T) {
	src := fromSlice(t, []float32{1.5, -2.5, 3}, Shape{3})
	defer src.Release()

	ints, err := To(src, Int32)
	require.NoError(t, err)
	defer ints.Release()
	require.Equal(t, Int32, ints.Dtype())
	for i, want := range []int32{1, -2, 3} {
		assert.Equal(t, want, At[int32](ints, i))
	}

	back, err := To(ints, Float32)
	require.NoError(t, err)
	defer back.Release()
	for i, want := range []float32{1, -2, 3} {
		assert.Equal(t, want, At[float32](back, i))
	}
}

func TestToFloat16RoundTrip(t *testing.T) {
	src := fromSlice(t, []float32{0, 1.5, -2.25, 65504}, Shape{4})
	defer src.Release()

	half, err := To(src, Float16)
	require.NoError(t, err)
	defer half.Release()
	require.Equal(t, Float16, half.Dtype())

	back, err := To(half, Float32)
	require.NoError(t, err)
	defer back.Release()

	for i, want := range []float32{0, 1.5, -2.25, 65504} {
		assert.Equal(t, want, At[float32](back, i))
	}
}

func TestCopyIntoExistingTensor(t *testing.T) {
	src := fromSlice(t, []float32{1, 2, 3, 4}, Shape{4})
	defer src.Release()
	dst, err := Zeros(Shape{4}, Float64, CPU)
	require.NoError(t, err)
	defer dst.Release()

	Copy(src, dst)

	for i := 0; i < 4; i++ {
		assert.Equal(t, float64(i+1), At[float64](dst, i))
	}
}

func TestFactories(t *testing.T) {
	z, err := Zeros(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	defer z.Release()
	o, err := Ones(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	defer o.Release()
	f, err := Full(Shape{2, 2}, 7, Int64, CPU)
	require.NoError(t, err)
	defer f.Release()

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.Equal(t, float32(0), At[float32](z, i, j))
			assert.Equal(t, float32(1), At[float32](o, i, j))
			assert.Equal(t, int64(7), At[int64](f, i, j))
		}
	}
}

func TestPromoteTypesLattice(t *testing.T) {
	tests := []struct {
		a, b, want Dtype
	}{
		{Float32, Float64, Float64},
		{Int32, Float32, Float32},
		{UInt8, Int8, Int8},
		{Bool, UInt8, UInt8},
		{Int16, Int64, Int64},
	}
	for _, tt := range tests {
		got, err := PromoteTypes(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %s", tt.a, tt.b)
	}
}
