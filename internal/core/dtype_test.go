package core

import "testing"

func TestDtypeByteSize(t *testing.T) {
	tests := []struct {
		dtype Dtype
		size  int
	}{
		{Bool, 1},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{UInt8, 1},
		{UInt16, 2},
		{UInt32, 4},
		{UInt64, 8},
		{Float16, 2},
		{Float32, 4},
		{Float64, 8},
		{ObjectDtype(24), 24},
	}

	for _, tt := range tests {
		if got := tt.dtype.ByteSize(); got != tt.size {
			t.Errorf("%s.ByteSize() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDtypeString(t *testing.T) {
	tests := []struct {
		dtype Dtype
		str   string
	}{
		{Bool, "bool"},
		{Int32, "int32"},
		{UInt8, "uint8"},
		{Float32, "float32"},
		{Float64, "float64"},
	}

	for _, tt := range tests {
		if got := tt.dtype.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}
}

func TestPromoteTypes(t *testing.T) {
	tests := []struct {
		a, b, want Dtype
	}{
		{Float32, Float32, Float32},
		{Float32, Float64, Float64},
		{Int32, Float32, Float32},
		{Int8, Int64, Int64},
		{UInt8, Int8, Int8},
		{Bool, UInt8, UInt8},
		{Bool, Bool, Bool},
		{UInt16, UInt64, UInt64},
	}

	for _, tt := range tests {
		got, err := PromoteTypes(tt.a, tt.b)
		if err != nil {
			t.Errorf("PromoteTypes(%s, %s): %v", tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PromoteTypes(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPromoteTypesRejectsObject(t *testing.T) {
	if _, err := PromoteTypes(ObjectDtype(8), Float32); err == nil {
		t.Error("expected error promoting object dtype")
	}
	if _, err := PromoteTypes(Float32, Undefined); err == nil {
		t.Error("expected error promoting undefined dtype")
	}
}

func TestDtypeOf(t *testing.T) {
	if DtypeOf[float32]() != Float32 {
		t.Error("DtypeOf[float32] != Float32")
	}
	if DtypeOf[int64]() != Int64 {
		t.Error("DtypeOf[int64] != Int64")
	}
	if DtypeOf[bool]() != Bool {
		t.Error("DtypeOf[bool] != Bool")
	}
}
