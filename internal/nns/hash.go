package nns

import (
	"fmt"
	"math"
	"unsafe"
)

// Per-axis primes for the spatial hash, XOR-combined and reduced modulo the
// table size.
const (
	hashPrimeX = 73856093
	hashPrimeY = 19349663
	hashPrimeZ = 83492791
)

func cellHash(cx, cy, cz int64, tableSize int) int {
	h := uint64(cx)*hashPrimeX ^ uint64(cy)*hashPrimeY ^ uint64(cz)*hashPrimeZ
	return int(h % uint64(tableSize))
}

func pointCell(coords []float64, i int, cellSize float64) (cx, cy, cz int64) {
	cx = int64(math.Floor(coords[pointDims*i] / cellSize))
	cy = int64(math.Floor(coords[pointDims*i+1] / cellSize))
	cz = int64(math.Floor(coords[pointDims*i+2] / cellSize))
	return cx, cy, cz
}

// buildSpatialHashTable groups dataset points into hash buckets: splits
// receives the per-bucket CSR boundaries, index the point ids permuted into
// bucket order. Probe-then-execute: nil scratch returns the required scratch
// size; otherwise scratch holds the per-bucket counters for both passes.
func buildSpatialHashTable(scratch []byte, coords []float64, cellSize float64, splits, index []int32) (requiredBytes int) {
	tableSize := len(splits) - 1
	requiredBytes = 4 * tableSize
	if scratch == nil {
		return requiredBytes
	}
	counts := int32Scratch(scratch, tableSize)

	n := len(coords) / pointDims
	clear(counts)
	for i := 0; i < n; i++ {
		counts[cellHash3(coords, i, cellSize, tableSize)]++
	}

	splits[0] = 0
	for c := 0; c < tableSize; c++ {
		splits[c+1] = splits[c] + counts[c]
	}

	// Scatter, reusing the counters as per-bucket fill cursors.
	clear(counts)
	for i := 0; i < n; i++ {
		c := cellHash3(coords, i, cellSize, tableSize)
		index[splits[c]+counts[c]] = int32(i)
		counts[c]++
	}
	return requiredBytes
}

func cellHash3(coords []float64, i int, cellSize float64, tableSize int) int {
	cx, cy, cz := pointCell(coords, i, cellSize)
	return cellHash(cx, cy, cz, tableSize)
}

// int32Scratch reinterprets a scratch buffer as n int32 counters.
func int32Scratch(scratch []byte, n int) []int32 {
	if len(scratch) < 4*n {
		panic(fmt.Sprintf("nns: scratch buffer too small: need %d bytes, got %d", 4*n, len(scratch)))
	}
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&scratch[0])), n)
}

// visitCandidates calls fn with the id and squared distance of every dataset
// point hashed into the cell ring covering a sphere of the given radius
// around (qx,qy,qz). Distinct cells may collide into one bucket, so visited
// buckets are deduplicated; fn filters by distance itself.
func (idx *FixedRadiusIndex) visitCandidates(qx, qy, qz, radius float64, fn func(j int32, d2 float64)) {
	ring := int64(math.Ceil(radius / idx.cellSize))
	cx := int64(math.Floor(qx / idx.cellSize))
	cy := int64(math.Floor(qy / idx.cellSize))
	cz := int64(math.Floor(qz / idx.cellSize))

	tableSize := len(idx.cellSplits) - 1
	seen := make([]int, 0, 27)
	for dx := -ring; dx <= ring; dx++ {
		for dy := -ring; dy <= ring; dy++ {
			for dz := -ring; dz <= ring; dz++ {
				bucket := cellHash(cx+dx, cy+dy, cz+dz, tableSize)
				if containsBucket(seen, bucket) {
					continue
				}
				seen = append(seen, bucket)

				for k := idx.cellSplits[bucket]; k < idx.cellSplits[bucket+1]; k++ {
					j := idx.cellIndex[k]
					px := idx.coords[pointDims*int(j)]
					py := idx.coords[pointDims*int(j)+1]
					pz := idx.coords[pointDims*int(j)+2]
					ddx, ddy, ddz := px-qx, py-qy, pz-qz
					fn(j, ddx*ddx+ddy*ddy+ddz*ddz)
				}
			}
		}
	}
}

func containsBucket(seen []int, bucket int) bool {
	for _, b := range seen {
		if b == bucket {
			return true
		}
	}
	return false
}
