package nns

import (
	"fmt"

	"github.com/strata3d/strata/internal/core"
	"github.com/strata3d/strata/internal/kernel"
)

// searchGrainSize keeps per-query fan-out coarse: each query already scans a
// full cell ring, so small batches saturate the workers.
const searchGrainSize = 64

// RadiusSearchResult packs fixed-radius results in CSR layout: the slice
// RowSplits[q]:RowSplits[q+1] of Indices/Distances belongs to query q.
// Distances are squared Euclidean, in the dataset dtype.
type RadiusSearchResult struct {
	Indices   *core.Tensor // int32, flat
	Distances *core.Tensor // dataset dtype, flat
	RowSplits *core.Tensor // int64, length numQueries+1
}

// HybridSearchResult packs capped radius results in fixed-width layout:
// row q of Indices/Distances holds query q's neighbors ordered by ascending
// distance, padded with index -1 and distance 0 beyond Counts[q].
type HybridSearchResult struct {
	Indices   *core.Tensor // int32, [numQueries, maxKNN]
	Distances *core.Tensor // dataset dtype, [numQueries, maxKNN]
	Counts    *core.Tensor // int32, [numQueries]
}

// SearchRadius finds, per query point, all dataset points within the
// Euclidean radius. With sorted=true each query's results are ordered by
// ascending distance; otherwise they come back in hash-bucket iteration
// order, which is unspecified but deterministic for a fixed table.
func (idx *FixedRadiusIndex) SearchRadius(queries *core.Tensor, radius float64, sorted bool) (*RadiusSearchResult, error) {
	if err := idx.checkQueries(queries, radius); err != nil {
		return nil, err
	}
	qcoords, err := readPoints(queries)
	if err != nil {
		return nil, err
	}

	required, _, _, _ := idx.searchRadius(nil, qcoords, radius)
	scratch := core.GetMemoryManager(idx.device).Allocate(required)
	defer scratch.Release()
	_, indices, dists, rowSplits := idx.searchRadius(scratch.Data(), qcoords, radius)

	if sorted {
		sortRequired := sortPairs(nil, indices, dists, rowSplits)
		sortScratch := core.GetMemoryManager(idx.device).Allocate(sortRequired)
		defer sortScratch.Release()
		sortPairs(sortScratch.Data(), indices, dists, rowSplits)
	}

	indexT, err := core.FromSlice(indices, core.Shape{len(indices)}, idx.device)
	if err != nil {
		return nil, err
	}
	distT, err := idx.distancesTensor(dists, core.Shape{len(dists)})
	if err != nil {
		indexT.Release()
		return nil, err
	}
	splitT, err := core.FromSlice(rowSplits, core.Shape{len(rowSplits)}, idx.device)
	if err != nil {
		indexT.Release()
		distT.Release()
		return nil, err
	}
	return &RadiusSearchResult{Indices: indexT, Distances: distT, RowSplits: splitT}, nil
}

// searchRadius probes or executes the fixed-radius query. Scratch holds the
// per-query neighbor counts from the counting pass; the fill pass then
// writes each query's segment independently.
func (idx *FixedRadiusIndex) searchRadius(scratch []byte, qcoords []float64, radius float64) (requiredBytes int, indices []int32, dists []float64, rowSplits []int64) {
	nq := len(qcoords) / pointDims
	requiredBytes = 4 * nq
	if scratch == nil {
		return requiredBytes, nil, nil, nil
	}
	counts := int32Scratch(scratch, nq)
	r2 := radius * radius

	kernel.ParallelFor(nq, searchGrainSize, func(q int) {
		n := int32(0)
		idx.visitCandidates(qcoords[pointDims*q], qcoords[pointDims*q+1], qcoords[pointDims*q+2],
			radius, func(_ int32, d2 float64) {
				if d2 <= r2 {
					n++
				}
			})
		counts[q] = n
	})

	rowSplits = make([]int64, nq+1)
	for q := 0; q < nq; q++ {
		rowSplits[q+1] = rowSplits[q] + int64(counts[q])
	}
	total := rowSplits[nq]
	indices = make([]int32, total)
	dists = make([]float64, total)

	kernel.ParallelFor(nq, searchGrainSize, func(q int) {
		pos := rowSplits[q]
		idx.visitCandidates(qcoords[pointDims*q], qcoords[pointDims*q+1], qcoords[pointDims*q+2],
			radius, func(j int32, d2 float64) {
				if d2 <= r2 {
					indices[pos] = j
					dists[pos] = d2
					pos++
				}
			})
	})
	return requiredBytes, indices, dists, rowSplits
}

// SearchHybrid finds up to maxKNN in-radius neighbors per query, ordered by
// ascending distance. Queries with fewer neighbors are padded with index -1
// and distance 0; Counts carries the true in-radius count capped at maxKNN.
func (idx *FixedRadiusIndex) SearchHybrid(queries *core.Tensor, radius float64, maxKNN int) (*HybridSearchResult, error) {
	if err := idx.checkQueries(queries, radius); err != nil {
		return nil, err
	}
	if maxKNN <= 0 {
		return nil, fmt.Errorf("nns: max_knn must be positive, got %d", maxKNN)
	}
	qcoords, err := readPoints(queries)
	if err != nil {
		return nil, err
	}

	required, _, _, _ := idx.searchHybrid(nil, qcoords, radius, maxKNN)
	scratch := core.GetMemoryManager(idx.device).Allocate(required)
	defer scratch.Release()
	_, indices, dists, counts := idx.searchHybrid(scratch.Data(), qcoords, radius, maxKNN)

	nq := len(qcoords) / pointDims
	indexT, err := core.FromSlice(indices, core.Shape{nq, maxKNN}, idx.device)
	if err != nil {
		return nil, err
	}
	distT, err := idx.distancesTensor(dists, core.Shape{nq, maxKNN})
	if err != nil {
		indexT.Release()
		return nil, err
	}
	countT, err := core.FromSlice(counts, core.Shape{nq}, idx.device)
	if err != nil {
		indexT.Release()
		distT.Release()
		return nil, err
	}
	return &HybridSearchResult{Indices: indexT, Distances: distT, Counts: countT}, nil
}

// searchHybrid probes or executes the capped query. The fixed-width outputs
// need no intermediate, so the probe reports zero scratch; it exists so
// callers drive every search through the same protocol.
func (idx *FixedRadiusIndex) searchHybrid(scratch []byte, qcoords []float64, radius float64, maxKNN int) (requiredBytes int, indices []int32, dists []float64, counts []int32) {
	if scratch == nil {
		return 0, nil, nil, nil
	}
	nq := len(qcoords) / pointDims
	indices = make([]int32, nq*maxKNN)
	dists = make([]float64, nq*maxKNN)
	counts = make([]int32, nq)
	r2 := radius * radius

	kernel.ParallelFor(nq, searchGrainSize, func(q int) {
		base := q * maxKNN
		cnt := 0
		idx.visitCandidates(qcoords[pointDims*q], qcoords[pointDims*q+1], qcoords[pointDims*q+2],
			radius, func(j int32, d2 float64) {
				if d2 > r2 {
					return
				}
				if cnt == maxKNN && d2 >= dists[base+cnt-1] {
					return
				}
				if cnt < maxKNN {
					cnt++
				}
				p := cnt - 1
				for p > 0 && dists[base+p-1] > d2 {
					dists[base+p] = dists[base+p-1]
					indices[base+p] = indices[base+p-1]
					p--
				}
				dists[base+p] = d2
				indices[base+p] = j
			})
		counts[q] = int32(cnt)
		for p := cnt; p < maxKNN; p++ {
			indices[base+p] = -1
			dists[base+p] = 0
		}
	})
	return 0, indices, dists, counts
}

// distancesTensor materializes squared distances in the dataset dtype.
func (idx *FixedRadiusIndex) distancesTensor(dists []float64, shape core.Shape) (*core.Tensor, error) {
	if idx.dtype == core.Float64 {
		return core.FromSlice(dists, shape, idx.device)
	}
	f32 := make([]float32, len(dists))
	for i, d := range dists {
		f32[i] = float32(d)
	}
	return core.FromSlice(f32, shape, idx.device)
}
