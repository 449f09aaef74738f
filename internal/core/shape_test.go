package core

import "testing"

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		n     int
	}{
		{Shape{}, 1},
		{Shape{0}, 0},
		{Shape{3}, 3},
		{Shape{2, 3, 4}, 24},
		{Shape{5, 0, 2}, 0},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.n {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.n)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b, want Shape
	}{
		{Shape{3, 1}, Shape{1, 4}, Shape{3, 4}},
		{Shape{3, 4}, Shape{4}, Shape{3, 4}},
		{Shape{2, 1, 5}, Shape{3, 1}, Shape{2, 3, 5}},
		{Shape{1}, Shape{7}, Shape{7}},
		{Shape{}, Shape{2, 2}, Shape{2, 2}},
		{Shape{4}, Shape{4}, Shape{4}},
	}

	for _, tt := range tests {
		got, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v): %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBroadcastShapesIncompatible(t *testing.T) {
	tests := []struct {
		a, b Shape
	}{
		{Shape{3}, Shape{4}},
		{Shape{2, 3}, Shape{3, 3}},
		{Shape{5, 1, 2}, Shape{5, 3, 4}},
	}

	for _, tt := range tests {
		if _, err := BroadcastShapes(tt.a, tt.b); err == nil {
			t.Errorf("BroadcastShapes(%v, %v): expected error", tt.a, tt.b)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate({2,3}): %v", err)
	}
	if err := (Shape{2, -1}).Validate(); err == nil {
		t.Error("Validate({2,-1}): expected error")
	}
	tooDeep := make(Shape, MaxDims+1)
	for i := range tooDeep {
		tooDeep[i] = 1
	}
	if err := tooDeep.Validate(); err == nil {
		t.Error("Validate(rank > MaxDims): expected error")
	}
}
