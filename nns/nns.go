// Copyright 2025 Strata3D. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nns provides spatial-hash nearest-neighbor search over 3D point
// tensors: fixed-radius queries with CSR-packed results and hybrid queries
// capped at a per-query neighbor budget.
//
// Example:
//
//	idx := nns.NewFixedRadiusIndex()
//	if err := idx.SetTensorData(points, 0.1); err != nil { ... }
//	res, err := idx.SearchRadius(queries, 0.1, true)
package nns

import (
	"github.com/strata3d/strata/internal/nns"
)

// FixedRadiusIndex answers "which dataset points lie within radius r of a
// query point" through a spatial hash built once per dataset via
// SetTensorData.
type FixedRadiusIndex = nns.FixedRadiusIndex

// RadiusSearchResult packs SearchRadius results in CSR layout; the slice
// RowSplits[q]:RowSplits[q+1] of Indices/Distances belongs to query q.
// Distances are squared Euclidean.
type RadiusSearchResult = nns.RadiusSearchResult

// HybridSearchResult packs SearchHybrid results in fixed-width rows of
// maxKNN slots, padded with index -1 and distance 0.
type HybridSearchResult = nns.HybridSearchResult

// NewFixedRadiusIndex returns an unbuilt index.
func NewFixedRadiusIndex() *FixedRadiusIndex {
	return nns.NewFixedRadiusIndex()
}
