package qbin

import (
	"math"
	"sort"
)

// vcritCoefficient and vcritExponent are the constants of the
// Chebyshev-style critical-value formula shared by the m/z split and
// the hot-end test (spec section 4.4): vcrit = 3.05037 * log(n)^(-0.4772) * e,
// derived for alpha = 0.01.
const (
	vcritCoefficient = 3.05037
	vcritExponent    = -0.4772
)

// splitMZ recursively partitions ids (already arena ids, any order)
// into m/z-stable segments: sort by m/z, compute the ppm-scaled order
// space and the cumulative mass error, and split at the largest gap
// whenever that gap's scaled size exceeds the statistical cutoff.
// Segments below MinBinSize are discarded to ctx.OutOfBins.
func splitMZ(ctx *BinningContext, ids []int) [][]int {
	if len(ids) < MinBinSize {
		ctx.discard(ids)
		return nil
	}

	s := ctx.Store
	sorted := append([]int(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return s.Get(sorted[i]).MZ < s.Get(sorted[j]).MZ })

	n := len(sorted)

	// order space: ppm-scaled consecutive m/z gaps
	os := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		os[i] = (s.Get(sorted[i+1]).MZ - s.Get(sorted[i]).MZ) * 1e6
	}

	// cumulative mass error, cumErr[k] = sum of error(sorted[0..k-1]),
	// scaled by 1e6 like the order space so the two are compared in the
	// same units
	cumErr := make([]float64, n+1)
	for i := 0; i < n; i++ {
		cumErr[i+1] = cumErr[i] + ctx.error(sorted[i])*1e6
	}

	maxOS, maxIdx := os[0], 0
	for i := 1; i < len(os); i++ {
		if os[i] > maxOS {
			maxOS, maxIdx = os[i], i
		}
	}

	maxVal := maxOS * float64(n)
	vcrit := vcritCoefficient * math.Pow(math.Log(float64(n)), vcritExponent) * (cumErr[n] - cumErr[0])

	if maxVal < vcrit {
		return [][]int{sorted}
	}

	left := sorted[:maxIdx+1]
	right := sorted[maxIdx+1:]

	var out [][]int
	out = append(out, splitMZ(ctx, left)...)
	out = append(out, splitMZ(ctx, right)...)
	return out
}
