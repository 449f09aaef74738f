// Package nns implements spatial-hash nearest-neighbor search over 3D point
// tensors: fixed-radius queries returning CSR-packed results and hybrid
// queries capped at a fixed per-query neighbor budget.
//
// Every variable-scratch operation follows a probe-then-execute protocol:
// invoked with a nil scratch buffer it returns the exact scratch size in
// bytes and does no work; invoked again with a buffer of that size it runs.
// Scratch is allocated through the dataset device's memory manager so the
// caching allocator amortizes repeated searches.
package nns

import (
	"fmt"

	"github.com/strata3d/strata/internal/core"
)

const (
	pointDims = 3

	// pointsPerCell steers the hash-table load factor.
	pointsPerCell = 32

	maxHashTableSize = 1 << 25
)

// FixedRadiusIndex answers "which dataset points lie within radius r of a
// query point" through a spatial hash built once per dataset.
//
// An index starts unbuilt; SetTensorData transitions it to built, after
// which SearchRadius and SearchHybrid may be called any number of times
// without mutating the index. Rebinding a new dataset via SetTensorData
// replaces the hash table wholesale.
type FixedRadiusIndex struct {
	coords    []float64 // flattened xyz triplets of the dataset
	numPoints int
	dtype     core.Dtype
	device    core.Device
	radius    float64
	cellSize  float64

	cellSplits []int32 // length hashTableSize+1, monotonically non-decreasing
	cellIndex  []int32 // dataset point ids grouped into contiguous cell buckets
}

// NewFixedRadiusIndex returns an unbuilt index.
func NewFixedRadiusIndex() *FixedRadiusIndex {
	return &FixedRadiusIndex{}
}

// hashTableSize is the bucket count for a dataset: one bucket per
// pointsPerCell points, clamped to [1, maxHashTableSize].
func hashTableSize(numPoints int) int {
	size := numPoints / pointsPerCell
	if size < 1 {
		size = 1
	}
	if size > maxHashTableSize {
		size = maxHashTableSize
	}
	return size
}

// SetTensorData builds the spatial hash for the dataset points. The points
// tensor must be [N,3] with a float dtype and N > 0, and radius must be
// strictly positive. The cell edge length is twice the radius, so every
// sphere of that radius overlaps at most the 3x3x3 cell ring around its
// center cell.
func (idx *FixedRadiusIndex) SetTensorData(points *core.Tensor, radius float64) error {
	if radius <= 0 {
		return fmt.Errorf("nns: radius must be positive, got %v", radius)
	}
	coords, err := readPoints(points)
	if err != nil {
		return err
	}
	n := len(coords) / pointDims
	if n == 0 {
		return fmt.Errorf("nns: dataset must contain at least one point")
	}

	cellSize := 2 * radius
	splits := make([]int32, hashTableSize(n)+1)
	index := make([]int32, n)

	required := buildSpatialHashTable(nil, coords, cellSize, splits, index)
	scratch := core.GetMemoryManager(points.Device()).Allocate(required)
	defer scratch.Release()
	buildSpatialHashTable(scratch.Data(), coords, cellSize, splits, index)

	idx.coords = coords
	idx.numPoints = n
	idx.dtype = points.Dtype()
	idx.device = points.Device()
	idx.radius = radius
	idx.cellSize = cellSize
	idx.cellSplits = splits
	idx.cellIndex = index
	return nil
}

// NumPoints returns the dataset size, or 0 for an unbuilt index.
func (idx *FixedRadiusIndex) NumPoints() int {
	return idx.numPoints
}

func (idx *FixedRadiusIndex) built() bool {
	return idx.cellSplits != nil
}

// checkQueries validates a query tensor against the built dataset.
func (idx *FixedRadiusIndex) checkQueries(queries *core.Tensor, radius float64) error {
	if !idx.built() {
		return fmt.Errorf("nns: search on an unbuilt index; call SetTensorData first")
	}
	if radius <= 0 {
		return fmt.Errorf("nns: radius must be positive, got %v", radius)
	}
	if queries.Device() != idx.device {
		return fmt.Errorf("nns: queries are on %s but the dataset is on %s",
			queries.Device(), idx.device)
	}
	if queries.Dtype() != idx.dtype {
		return fmt.Errorf("nns: query dtype %s does not match dataset dtype %s",
			queries.Dtype(), idx.dtype)
	}
	return nil
}

// readPoints flattens a [N,3] float tensor into xyz triplets.
func readPoints(t *core.Tensor) ([]float64, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[1] != pointDims {
		return nil, fmt.Errorf("nns: points must have shape [N,%d], got %v", pointDims, shape)
	}
	if t.Dtype() != core.Float32 && t.Dtype() != core.Float64 {
		return nil, fmt.Errorf("nns: points must be float32 or float64, got %s", t.Dtype())
	}

	c := t.Contiguous()
	defer c.Release()

	out := make([]float64, c.NumElements())
	switch t.Dtype() {
	case core.Float32:
		for i, v := range c.AsFloat32() {
			out[i] = float64(v)
		}
	case core.Float64:
		copy(out, c.AsFloat64())
	}
	return out, nil
}
