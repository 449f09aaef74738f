package nns

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata3d/strata/internal/core"
)

// randomCloud builds an [n,3] float32 tensor of points uniform in the unit
// cube and returns the coordinates as float64 triplets, mirroring how the
// index ingests them.
func randomCloud(t *testing.T, rng *rand.Rand, n int) (*core.Tensor, []float64) {
	t.Helper()
	data := make([]float32, n*pointDims)
	for i := range data {
		data[i] = rng.Float32()
	}
	points, err := core.FromSlice(data, core.Shape{n, pointDims}, core.CPU)
	require.NoError(t, err)

	coords := make([]float64, len(data))
	for i, v := range data {
		coords[i] = float64(v)
	}
	return points, coords
}

// bruteNeighbors returns index -> squared distance for every dataset point
// within radius of query q.
func bruteNeighbors(coords []float64, q int, radius float64) map[int32]float64 {
	r2 := radius * radius
	qx, qy, qz := coords[3*q], coords[3*q+1], coords[3*q+2]
	out := make(map[int32]float64)
	for j := 0; j < len(coords)/3; j++ {
		dx := coords[3*j] - qx
		dy := coords[3*j+1] - qy
		dz := coords[3*j+2] - qz
		if d2 := dx*dx + dy*dy + dz*dz; d2 <= r2 {
			out[int32(j)] = d2
		}
	}
	return out
}

func TestSearchRadiusMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points, coords := randomCloud(t, rng, 500)
	defer points.Release()

	const radius = 0.1
	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, radius))
	require.Equal(t, 500, idx.NumPoints())

	res, err := idx.SearchRadius(points, radius, true)
	require.NoError(t, err)
	defer res.Indices.Release()
	defer res.Distances.Release()
	defer res.RowSplits.Release()

	require.True(t, res.RowSplits.Shape().Equal(core.Shape{501}))
	assert.EqualValues(t, 0, core.At[int64](res.RowSplits, 0))

	for q := 0; q < 500; q++ {
		want := bruteNeighbors(coords, q, radius)
		start := int(core.At[int64](res.RowSplits, q))
		stop := int(core.At[int64](res.RowSplits, q+1))
		require.Equal(t, len(want), stop-start, "query %d neighbor count", q)

		prev := float32(-1)
		foundSelf := false
		for p := start; p < stop; p++ {
			j := core.At[int32](res.Indices, p)
			d := core.At[float32](res.Distances, p)
			wantD, ok := want[j]
			require.True(t, ok, "query %d returned point %d outside the radius", q, j)
			assert.Equal(t, float32(wantD), d)
			assert.GreaterOrEqual(t, d, prev, "query %d results not sorted", q)
			prev = d
			if j == int32(q) {
				foundSelf = true
				assert.Zero(t, d, "self distance must be exactly 0")
			}
		}
		assert.True(t, foundSelf, "query %d must find itself", q)
	}

	total := int(core.At[int64](res.RowSplits, 500))
	assert.Equal(t, total, res.Indices.NumElements())
	assert.Equal(t, total, res.Distances.NumElements())
}

func TestSearchRadiusUnsortedSameNeighbors(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points, _ := randomCloud(t, rng, 200)
	defer points.Release()

	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, 0.15))

	sorted, err := idx.SearchRadius(points, 0.15, true)
	require.NoError(t, err)
	unsorted, err := idx.SearchRadius(points, 0.15, false)
	require.NoError(t, err)

	for q := 0; q < 200; q++ {
		a := segmentSet(t, sorted, q)
		b := segmentSet(t, unsorted, q)
		assert.Equal(t, a, b, "query %d neighbor sets differ", q)
	}
}

func segmentSet(t *testing.T, res *RadiusSearchResult, q int) map[int32]float32 {
	t.Helper()
	out := make(map[int32]float32)
	start := int(core.At[int64](res.RowSplits, q))
	stop := int(core.At[int64](res.RowSplits, q+1))
	for p := start; p < stop; p++ {
		out[core.At[int32](res.Indices, p)] = core.At[float32](res.Distances, p)
	}
	return out
}

func TestSearchRadiusWiderThanBuildRadius(t *testing.T) {
	// Querying with a radius larger than the build radius widens the cell
	// ring instead of missing neighbors.
	data := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 2, 0,
	}
	points, err := core.FromSlice(data, core.Shape{3, 3}, core.CPU)
	require.NoError(t, err)
	defer points.Release()

	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, 0.25))

	res, err := idx.SearchRadius(points, 2.5, true)
	require.NoError(t, err)

	// Every point sees all three within radius 2.5.
	for q := 0; q < 3; q++ {
		start := core.At[int64](res.RowSplits, q)
		stop := core.At[int64](res.RowSplits, q+1)
		assert.EqualValues(t, 3, stop-start, "query %d", q)
	}
}

func TestSearchHybridCapsAndPads(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points, coords := randomCloud(t, rng, 300)
	defer points.Release()

	const radius = 0.2
	const maxKNN = 4
	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, radius))

	res, err := idx.SearchHybrid(points, radius, maxKNN)
	require.NoError(t, err)

	require.True(t, res.Indices.Shape().Equal(core.Shape{300, maxKNN}))
	require.True(t, res.Distances.Shape().Equal(core.Shape{300, maxKNN}))
	require.True(t, res.Counts.Shape().Equal(core.Shape{300}))

	for q := 0; q < 300; q++ {
		want := bruteNeighbors(coords, q, radius)
		cnt := int(core.At[int32](res.Counts, q))
		if len(want) < maxKNN {
			require.Equal(t, len(want), cnt, "query %d", q)
		} else {
			require.Equal(t, maxKNN, cnt, "query %d", q)
		}

		prev := float32(-1)
		for p := 0; p < cnt; p++ {
			j := core.At[int32](res.Indices, q, p)
			d := core.At[float32](res.Distances, q, p)
			wantD, ok := want[j]
			require.True(t, ok, "query %d slot %d: point %d outside radius", q, p, j)
			assert.Equal(t, float32(wantD), d)
			assert.GreaterOrEqual(t, d, prev)
			prev = d
		}
		for p := cnt; p < maxKNN; p++ {
			assert.EqualValues(t, -1, core.At[int32](res.Indices, q, p), "padding index")
			assert.Zero(t, core.At[float32](res.Distances, q, p), "padding distance")
		}
	}
}

func TestSearchHybridKeepsNearest(t *testing.T) {
	// A line of points at x = 0, 1, 2, 3, 4: querying from the origin with
	// a generous radius and k=2 must keep the two closest.
	data := []float32{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
		3, 0, 0,
		4, 0, 0,
	}
	points, err := core.FromSlice(data, core.Shape{5, 3}, core.CPU)
	require.NoError(t, err)
	defer points.Release()

	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, 1.0))

	query, err := core.FromSlice([]float32{0, 0, 0}, core.Shape{1, 3}, core.CPU)
	require.NoError(t, err)
	defer query.Release()

	res, err := idx.SearchHybrid(query, 10.0, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 2, core.At[int32](res.Counts, 0))
	assert.EqualValues(t, 0, core.At[int32](res.Indices, 0, 0))
	assert.EqualValues(t, 1, core.At[int32](res.Indices, 0, 1))
	assert.EqualValues(t, 0, core.At[float32](res.Distances, 0, 0))
	assert.EqualValues(t, 1, core.At[float32](res.Distances, 0, 1))
}

func TestSetTensorDataValidation(t *testing.T) {
	idx := NewFixedRadiusIndex()

	good, err := core.FromSlice([]float32{0, 0, 0}, core.Shape{1, 3}, core.CPU)
	require.NoError(t, err)
	defer good.Release()

	assert.Error(t, idx.SetTensorData(good, 0), "zero radius")
	assert.Error(t, idx.SetTensorData(good, -1), "negative radius")

	flat, err := core.FromSlice([]float32{0, 0, 0}, core.Shape{3}, core.CPU)
	require.NoError(t, err)
	defer flat.Release()
	assert.Error(t, idx.SetTensorData(flat, 0.1), "rank-1 points")

	wide, err := core.FromSlice([]float32{0, 0, 0, 0}, core.Shape{1, 4}, core.CPU)
	require.NoError(t, err)
	defer wide.Release()
	assert.Error(t, idx.SetTensorData(wide, 0.1), "wrong point width")

	ints, err := core.FromSlice([]int32{0, 0, 0}, core.Shape{1, 3}, core.CPU)
	require.NoError(t, err)
	defer ints.Release()
	assert.Error(t, idx.SetTensorData(ints, 0.1), "integer dtype")
}

func TestSearchValidation(t *testing.T) {
	queries, err := core.FromSlice([]float32{0, 0, 0}, core.Shape{1, 3}, core.CPU)
	require.NoError(t, err)
	defer queries.Release()

	unbuilt := NewFixedRadiusIndex()
	_, err = unbuilt.SearchRadius(queries, 0.1, false)
	assert.Error(t, err, "unbuilt index")
	_, err = unbuilt.SearchHybrid(queries, 0.1, 1)
	assert.Error(t, err, "unbuilt index")

	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(queries, 0.1))

	_, err = idx.SearchRadius(queries, 0, false)
	assert.Error(t, err, "zero search radius")

	_, err = idx.SearchHybrid(queries, 0.1, 0)
	assert.Error(t, err, "non-positive max_knn")

	f64, err := core.FromSlice([]float64{0, 0, 0}, core.Shape{1, 3}, core.CPU)
	require.NoError(t, err)
	defer f64.Release()
	_, err = idx.SearchRadius(f64, 0.1, false)
	assert.Error(t, err, "query dtype mismatch")
}

func TestFloat64Dataset(t *testing.T) {
	data := []float64{
		0, 0, 0,
		0.05, 0, 0,
		5, 5, 5,
	}
	points, err := core.FromSlice(data, core.Shape{3, 3}, core.CPU)
	require.NoError(t, err)
	defer points.Release()

	idx := NewFixedRadiusIndex()
	require.NoError(t, idx.SetTensorData(points, 0.1))

	res, err := idx.SearchRadius(points, 0.1, true)
	require.NoError(t, err)

	require.Equal(t, core.Float64, res.Distances.Dtype())
	// Point 0 sees itself and point 1.
	assert.EqualValues(t, 2, core.At[int64](res.RowSplits, 1))
	assert.InDelta(t, 0.0025, core.At[float64](res.Distances, 1), 1e-12)
	// The far point only sees itself.
	last := core.At[int64](res.RowSplits, 3) - core.At[int64](res.RowSplits, 2)
	assert.EqualValues(t, 1, last)
}

func TestHashTableSizeClamp(t *testing.T) {
	assert.Equal(t, 1, hashTableSize(0))
	assert.Equal(t, 1, hashTableSize(31))
	assert.Equal(t, 2, hashTableSize(64))
	assert.Equal(t, maxHashTableSize, hashTableSize(1<<31))
}
