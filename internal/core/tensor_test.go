package core

import (
	"testing"
)

func mustFromSlice[T Scalar](t *testing.T, data []T, shape Shape) *Tensor {
	t.Helper()
	ts, err := FromSlice(data, shape, CPU)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return ts
}

func TestEmptyAndAccessors(t *testing.T) {
	ts, err := Empty(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("Empty: %v", err)
	}
	defer ts.Release()

	if !ts.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v", ts.Shape())
	}
	if ts.Dtype() != Float32 {
		t.Errorf("dtype = %s", ts.Dtype())
	}
	if ts.Device() != CPU {
		t.Errorf("device = %s", ts.Device())
	}
	if ts.NumElements() != 6 || ts.NumBytes() != 24 {
		t.Errorf("elements/bytes = %d/%d", ts.NumElements(), ts.NumBytes())
	}
	if !ts.IsContiguous() {
		t.Error("fresh tensor must be contiguous")
	}
	// Row-major byte strides.
	if s := ts.Strides(); s[0] != 12 || s[1] != 4 {
		t.Errorf("strides = %v", s)
	}
}

func TestFromSliceRoundTrip(t *testing.T) {
	ts := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	defer ts.Release()

	want := [][]float32{{1, 2, 3}, {4, 5, 6}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if got := At[float32](ts, i, j); got != want[i][j] {
				t.Errorf("at(%d,%d) = %v, want %v", i, j, got, want[i][j])
			}
		}
	}
}

func TestSetAtAndItem(t *testing.T) {
	ts := mustFromSlice(t, []int32{0}, Shape{1})
	defer ts.Release()

	SetAt(ts, int32(42), 0)
	if got := Item[int32](ts); got != 42 {
		t.Errorf("item = %d, want 42", got)
	}
}

func TestFill(t *testing.T) {
	ts, err := Full(Shape{3, 2}, 2.5, Float64, CPU)
	if err != nil {
		t.Fatalf("Full: %v", err)
	}
	defer ts.Release()

	for _, v := range ts.AsFloat64() {
		if v != 2.5 {
			t.Fatalf("fill value = %v", v)
		}
	}
}

func TestViewAliases(t *testing.T) {
	ts := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	defer ts.Release()

	v, err := ts.View(Shape{3, 2})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	defer v.Release()

	SetAt(v, float32(99), 0, 0)
	if got := At[float32](ts, 0, 0); got != 99 {
		t.Errorf("view write not visible through base: %v", got)
	}
	if v.Buffer() != ts.Buffer() {
		t.Error("view must share the buffer")
	}
}

func TestSliceView(t *testing.T) {
	ts := mustFromSlice(t, []float32{0, 1, 2, 3, 4, 5, 6, 7, 8}, Shape{3, 3})
	defer ts.Release()

	// Middle row.
	row, err := ts.Slice(0, 1, 2, 1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	defer row.Release()
	if !row.Shape().Equal(Shape{1, 3}) {
		t.Fatalf("row shape = %v", row.Shape())
	}
	for j := 0; j < 3; j++ {
		if got := At[float32](row, 0, j); got != float32(3+j) {
			t.Errorf("row[0][%d] = %v", j, got)
		}
	}

	// Every other column.
	cols, err := ts.Slice(1, 0, 3, 2)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	defer cols.Release()
	if !cols.Shape().Equal(Shape{3, 2}) {
		t.Fatalf("cols shape = %v", cols.Shape())
	}
	if At[float32](cols, 1, 1) != 5 {
		t.Errorf("cols[1][1] = %v", At[float32](cols, 1, 1))
	}
	if cols.IsContiguous() {
		t.Error("strided column slice must not be contiguous")
	}
}

func TestSliceNegativeStep(t *testing.T) {
	ts := mustFromSlice(t, []int32{0, 1, 2, 3}, Shape{4})
	defer ts.Release()

	// stop is exclusive, so [3, 0) with step -1 walks 3, 2, 1.
	rev, err := ts.Slice(0, 3, 0, -1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	defer rev.Release()

	if !rev.Shape().Equal(Shape{3}) {
		t.Fatalf("rev shape = %v", rev.Shape())
	}
	for i := 0; i < 3; i++ {
		if got := At[int32](rev, i); got != int32(3-i) {
			t.Errorf("rev[%d] = %d", i, got)
		}
	}
}

func TestPermuteAndContiguous(t *testing.T) {
	ts := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	defer ts.Release()

	tr, err := ts.T()
	if err != nil {
		t.Fatalf("T: %v", err)
	}
	defer tr.Release()
	if !tr.Shape().Equal(Shape{3, 2}) {
		t.Fatalf("transposed shape = %v", tr.Shape())
	}
	if tr.IsContiguous() {
		t.Error("transpose of a 2x3 must not be contiguous")
	}
	if At[float32](tr, 2, 1) != 6 {
		t.Errorf("tr[2][1] = %v", At[float32](tr, 2, 1))
	}

	c := tr.Contiguous()
	defer c.Release()
	if !c.IsContiguous() {
		t.Fatal("Contiguous() result must be contiguous")
	}
	wantData := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range c.AsFloat32() {
		if v != wantData[i] {
			t.Errorf("contiguous data[%d] = %v, want %v", i, v, wantData[i])
		}
	}
	// Gathering copies: writes must not leak back.
	SetAt(c, float32(-1), 0, 0)
	if At[float32](ts, 0, 0) == -1 {
		t.Error("contiguous copy must not alias the source")
	}
}

func TestContiguousOfContiguousAliases(t *testing.T) {
	ts := mustFromSlice(t, []float32{1, 2, 3}, Shape{3})
	defer ts.Release()

	c := ts.Contiguous()
	defer c.Release()
	if c.Buffer() != ts.Buffer() {
		t.Error("contiguous view of a contiguous tensor must alias")
	}
}

func TestCloneIsDeep(t *testing.T) {
	ts := mustFromSlice(t, []int64{1, 2, 3}, Shape{3})
	defer ts.Release()

	c := ts.Clone()
	defer c.Release()
	SetAt(c, int64(9), 0)
	if At[int64](ts, 0) == 9 {
		t.Error("clone must not alias the source")
	}
}

func TestReshapeNonContiguousCopies(t *testing.T) {
	ts := mustFromSlice(t, []float32{1, 2, 3, 4}, Shape{2, 2})
	defer ts.Release()

	tr, err := ts.T()
	if err != nil {
		t.Fatalf("T: %v", err)
	}
	defer tr.Release()

	flat, err := tr.Reshape(Shape{4})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	defer flat.Release()
	want := []float32{1, 3, 2, 4}
	for i := 0; i < 4; i++ {
		if got := At[float32](flat, i); got != want[i] {
			t.Errorf("flat[%d] = %v, want %v", i, got, want[i])
		}
	}
}

func TestBufferRefcounting(t *testing.T) {
	ts := mustFromSlice(t, []float32{1}, Shape{1})
	buf := ts.Buffer()
	if !buf.IsUnique() {
		t.Fatal("fresh tensor must hold the only reference")
	}

	v, err := ts.View(Shape{1})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if buf.IsUnique() {
		t.Error("view must add a reference")
	}
	v.Release()
	if !buf.IsUnique() {
		t.Error("releasing the view must drop its reference")
	}
	ts.Release()
	if buf.Data() != nil {
		t.Error("last release must free the buffer")
	}
}
