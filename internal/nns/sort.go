package nns

import (
	"fmt"
	"sort"
	"unsafe"
)

// sortPairs orders each CSR segment of (indices, dists) by ascending
// distance, with the dataset index as tiebreaker so equal distances come
// back in a stable order. Probe-then-execute: scratch stages the largest
// segment's key/value pairs so the sorter swaps them together.
func sortPairs(scratch []byte, indices []int32, dists []float64, rowSplits []int64) (requiredBytes int) {
	maxSeg := 0
	for q := 0; q+1 < len(rowSplits); q++ {
		if n := int(rowSplits[q+1] - rowSplits[q]); n > maxSeg {
			maxSeg = n
		}
	}
	requiredBytes = maxSeg * (8 + 4)
	if scratch == nil || maxSeg == 0 {
		return requiredBytes
	}
	if len(scratch) < requiredBytes {
		panic(fmt.Sprintf("nns: scratch buffer too small: need %d bytes, got %d",
			requiredBytes, len(scratch)))
	}
	segD := unsafe.Slice((*float64)(unsafe.Pointer(&scratch[0])), maxSeg)
	segI := unsafe.Slice((*int32)(unsafe.Pointer(&scratch[8*maxSeg])), maxSeg)

	for q := 0; q+1 < len(rowSplits); q++ {
		lo, hi := rowSplits[q], rowSplits[q+1]
		n := int(hi - lo)
		if n < 2 {
			continue
		}
		copy(segD[:n], dists[lo:hi])
		copy(segI[:n], indices[lo:hi])
		sort.Sort(&pairSorter{d: segD[:n], i: segI[:n]})
		copy(dists[lo:hi], segD[:n])
		copy(indices[lo:hi], segI[:n])
	}
	return requiredBytes
}

type pairSorter struct {
	d []float64
	i []int32
}

func (s *pairSorter) Len() int { return len(s.d) }

func (s *pairSorter) Less(a, b int) bool {
	if s.d[a] != s.d[b] {
		return s.d[a] < s.d[b]
	}
	return s.i[a] < s.i[b]
}

func (s *pairSorter) Swap(a, b int) {
	s.d[a], s.d[b] = s.d[b], s.d[a]
	s.i[a], s.i[b] = s.i[b], s.i[a]
}
