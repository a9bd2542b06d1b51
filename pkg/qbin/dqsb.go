package qbin

import (
	"math"
	"sort"

	"github.com/odea-project/qalgo-go/internal/statistics"
)

// scanIndex is a read-only view of every centroid in the arena,
// grouped by scan and sorted by m/z within each scan. It is what the
// DQSB neighbour search consults to find the points immediately
// outside a bin's m/z range in nearby scans -- points that may belong
// to other bins, or to none at all (out-of-bins).
type scanIndex map[int][]int // scan -> ids sorted by mz

func buildScanIndex(s *Store) scanIndex {
	idx := make(scanIndex)
	for _, id := range s.AllIDs() {
		sc := s.Get(id).Scan
		idx[sc] = append(idx[sc], id)
	}
	for sc := range idx {
		ids := idx[sc]
		sort.Slice(ids, func(i, j int) bool { return s.Get(ids[i]).MZ < s.Get(ids[j]).MZ })
	}
	return idx
}

// nearestBelow returns the largest m/z strictly less than limit among
// a scan's ids, or -Inf if none exists ("IGNORE"/sentinel
// per spec: a scan with no point below the bin contributes a distance
// of +Inf, i.e. it never wins the minimum).
func nearestBelow(s *Store, ids []int, limit float64) float64 {
	best := math.Inf(-1)
	for _, id := range ids {
		mz := s.Get(id).MZ
		if mz < limit && mz > best {
			best = mz
		}
	}
	return best
}

// nearestAbove is nearestBelow's mirror for the right edge.
func nearestAbove(s *Store, ids []int, limit float64) float64 {
	best := math.Inf(1)
	for _, id := range ids {
		mz := s.Get(id).MZ
		if mz > limit && mz < best {
			best = mz
		}
	}
	return best
}

// externalNeighbour is the per-scan candidate pair the DQSB search
// looks up: the nearest m/z below the bin's minimum and above the
// bin's maximum, each independently possibly absent (+-Inf).
type externalNeighbour struct {
	below, above float64
}

// buildNeighbours precomputes, once per bin, the nearest below-min/
// above-max m/z in every scan spanning the bin's scan range extended
// by MaxDist on each side -- the candidate pool every point's own
// per-scan window draws from (spec section 4.4; original_source's
// minMaxOutPerScan).
func buildNeighbours(s *Store, idx scanIndex, minMZ, maxMZ float64, loScan, hiScan int) map[int]externalNeighbour {
	out := make(map[int]externalNeighbour, hiScan-loScan+1)
	for sc := loScan; sc <= hiScan; sc++ {
		ids, ok := idx[sc]
		if !ok {
			continue // IGNORE: scan absent from the data entirely
		}
		out[sc] = externalNeighbour{
			below: nearestBelow(s, ids, minMZ),
			above: nearestAbove(s, ids, maxMZ),
		}
	}
	return out
}

// pointMOD returns a single point's base and scaled MOD: the minimum,
// over every scan within MaxDist of that point's OWN scan (not the
// bin's aggregate scan range), of the distance from the point's own
// m/z to the scan's precomputed below-min/above-max neighbour.
// original_source/src/qalgorithms_qbin.cpp:709-724 indexes the
// per-point search window from the point's own scanNo
// (currentRangeStart = (scanNo-minScanInner)*2); the weight table is
// addressed the same way, by the point's offset within its own
// +-MaxDist window rather than the bin's edge distance.
func pointMOD(ctx *BinningContext, neighbours map[int]externalNeighbour, mzPoint float64, scanPoint int) (base, scaled float64) {
	if ctx.weights == nil {
		ctx.weights = statistics.ScaledDistanceWeights(ctx.MaxDist)
	}
	base, scaled = math.Inf(1), math.Inf(1)
	for rawOffset := 0; rawOffset <= 2*ctx.MaxDist; rawOffset++ {
		sc := scanPoint - ctx.MaxDist + rawOffset
		n, ok := neighbours[sc]
		if !ok {
			continue
		}
		if !math.IsInf(n.below, -1) {
			d := math.Abs(mzPoint - n.below)
			if d < base {
				base = d
			}
			if wd := d * ctx.weights[2*rawOffset]; wd < scaled {
				scaled = wd
			}
		}
		if !math.IsInf(n.above, 1) {
			d := math.Abs(mzPoint - n.above)
			if d < base {
				base = d
			}
			if wd := d * ctx.weights[2*rawOffset+1]; wd < scaled {
				scaled = wd
			}
		}
	}
	return base, scaled
}

// computeDQSB fills in a closed bin's MID-derived base and scaled
// quality scores (spec section 4.4), plus its edge-distance and
// median-m/z summary fields. idx is the whole-arena scan index built
// once per binning run.
func computeDQSB(ctx *BinningContext, b *Bin, idx scanIndex) {
	s := ctx.Store
	b.sortByMZ(s)
	n := len(b.IDs)

	mz := make([]float64, n)
	scan := make([]int, n)
	for i, id := range b.IDs {
		c := s.Get(id)
		mz[i] = c.MZ
		scan[i] = c.Scan
	}
	b.MedianMZ = median(mz)

	// MID[i]: mean m/z distance from point i to every other point in
	// the bin, computed in O(n) via a running total over the sorted
	// m/z sequence (sum of |mz_i - mz_j| over j != i).
	mid := meanAbsoluteDeviations(mz)

	minMZ, maxMZ := mz[0], mz[n-1]
	minScan, maxScan := b.ScanRange(s)
	neighbours := buildNeighbours(s, idx, minMZ, maxMZ, minScan-ctx.MaxDist, maxScan+ctx.MaxDist)

	b.DQSBBase = make([]float64, n)
	b.DQSBScaled = make([]float64, n)
	for i := range b.IDs {
		base, scaled := pointMOD(ctx, neighbours, mz[i], scan[i])
		b.DQSBBase[i] = dqsbScore(mid[i], base)
		b.DQSBScaled[i] = dqsbScore(mid[i], scaled)
	}

	checkHotEnds(ctx, b, mid, minMZ, maxMZ)
}

// dqsbScore evaluates DQS[i] = 0.5 + (MOD-MID) / (2*max(MID,MOD)*(1+MID)).
func dqsbScore(mid, mod float64) float64 {
	if math.IsInf(mod, 1) {
		// no external neighbour found within range: maximally isolated,
		// the formula's limit as MOD grows without bound
		return 0.5 + 1/(2*(1+mid))
	}
	denom := 2 * math.Max(mid, mod) * (1 + mid)
	if denom == 0 {
		return 1
	}
	return 0.5 + (mod-mid)/denom
}

// checkHotEnds implements the hot-end test: at each m/z-sorted
// endpoint, compare the already-computed base DQS against the DQS
// that vcrit2 (the statistical cutoff used for an "expected" nearest
// neighbour) would have produced; a worse-than-expected actual score
// means the edge may be hiding a missed point. l_maxdist_abs/
// r_maxdist_abs are set from the same vcrit2, matching
// original_source/src/qalgorithms_qbin.cpp:696-750 (both the hot-end
// comparison and the maxdist-abs bounds are derived from the single
// local `vcrit`, not from the observed neighbour distance).
func checkHotEnds(ctx *BinningContext, b *Bin, mid []float64, minMZ, maxMZ float64) {
	n := len(b.IDs)
	meanErr := 0.0
	for _, id := range b.IDs {
		meanErr += ctx.error(id)
	}
	meanErr /= float64(n)

	vcrit2 := vcritCoefficient * math.Pow(math.Log(float64(n+1)), vcritExponent) * meanErr

	hypotheticalL := dqsbScore(mid[0], vcrit2)
	b.LMaxdistTooClose = hypotheticalL > b.DQSBBase[0]

	hypotheticalR := dqsbScore(mid[n-1], vcrit2)
	b.RMaxdistTooClose = hypotheticalR > b.DQSBBase[n-1]

	b.LMaxdistAbs = minMZ - vcrit2
	b.RMaxdistAbs = maxMZ + vcrit2
}

// meanAbsoluteDeviations computes, for each index i of a sorted slice,
// the mean absolute difference to every other element, in O(n) via
// prefix sums instead of the naive O(n^2) pairwise computation.
func meanAbsoluteDeviations(sorted []float64) []float64 {
	n := len(sorted)
	out := make([]float64, n)
	if n <= 1 {
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range sorted {
		prefix[i+1] = prefix[i] + v
	}

	for i, v := range sorted {
		sumLeft := v*float64(i) - prefix[i]
		sumRight := (prefix[n] - prefix[i+1]) - v*float64(n-i-1)
		out[i] = (sumLeft + sumRight) / float64(n-1)
	}
	return out
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
