package grid

import (
	"fmt"
	"sort"
)

// SizeRange is a (Min, Max) pair of window size proportions with Min < Max.
type SizeRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// String formats the range as "(min,max)".
func (r SizeRange) String() string {
	return fmt.Sprintf("(%g,%g)", r.Min, r.Max)
}

// BuildRanges pairs every min candidate with every strictly greater max candidate.
//
// Both inputs are sorted ascending (copies, the inputs are not modified). The
// output is ordered by ascending Min, then ascending Max within the same Min.
// A min candidate without any greater max candidate contributes nothing.
// Either input being empty yields an empty, non-nil slice.
//
// # Example
//
//	BuildRanges([]float64{0.1, 0.5}, []float64{0.3, 0.9})
//	// [(0.1,0.3) (0.1,0.9) (0.5,0.9)]
func BuildRanges(minCandidates, maxCandidates []float64) []SizeRange {
	mins := sortedCopy(minCandidates)
	maxs := sortedCopy(maxCandidates)

	ranges := make([]SizeRange, 0, len(mins)*len(maxs))
	for _, lo := range mins {
		// first max strictly greater than lo; everything after it qualifies
		start := sort.Search(len(maxs), func(i int) bool { return maxs[i] > lo })
		for _, hi := range maxs[start:] {
			ranges = append(ranges, SizeRange{Min: lo, Max: hi})
		}
	}
	return ranges
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
