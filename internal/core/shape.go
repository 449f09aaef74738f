package core

import "fmt"

// MaxDims is the maximum tensor rank supported by the indexer.
const MaxDims = 10

// Shape represents the dimensions of a tensor.
// A zero-length shape is a scalar with one element.
type Shape []int

// NumElements returns the total number of elements for the shape.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is non-negative and the rank is
// within MaxDims.
func (s Shape) Validate() error {
	if len(s) > MaxDims {
		return fmt.Errorf("shape %v exceeds maximum rank %d", s, MaxDims)
	}
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// defaultStrides returns the canonical row-major byte strides for the shape
// and an element width of byteSize.
func (s Shape) defaultStrides(byteSize int) []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = byteSize
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style right-aligned broadcasting.
//
// Dimensions are compared from the trailing axis; at each axis every size
// must be either 1 or equal to the axis maximum, otherwise the shapes are
// incompatible. Missing leading dimensions are treated as 1.
func BroadcastShapes(shapes ...Shape) (Shape, error) {
	maxLen := 0
	for _, s := range shapes {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	result := make(Shape, maxLen)
	for i := range result {
		result[i] = 1
	}
	for _, s := range shapes {
		for i := 0; i < len(s); i++ {
			axis := maxLen - len(s) + i
			dim := s[i]
			switch {
			case dim == result[axis] || dim == 1:
				// Compatible, keep the current max.
			case result[axis] == 1:
				result[axis] = dim
			default:
				return nil, fmt.Errorf("shapes not compatible for broadcasting: %v (axis %d: %d vs %d)",
					shapes, axis, dim, result[axis])
			}
		}
	}
	return result, nil
}
