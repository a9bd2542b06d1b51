package qbin

import (
	"math"
	"sort"
)

// Summary is the per-bin row of the `-pb`/`-printbins` bin-summary
// file (spec section 6).
type Summary struct {
	ID          int
	ErrorCode   int
	Size        int
	MeanMZ      float64
	MedianMZ    float64
	StdevMZ     float64
	MeanScans   float64
	DQSBBase    float64 // mean over the bin
	DQSBScaled  float64 // mean over the bin
	DQSCenMin   float64
	MeanError   float64
}

// Error-code bitmask bits, per spec section 6.
const (
	ErrDuplicateScan     = 1 << 0
	ErrLeftHotEnd        = 1 << 1
	ErrRightHotEnd       = 1 << 2
	ErrMeanMedianOutlier = 1 << 3
	ErrThreeSigmaOutside = 1 << 4
	ErrLowMeanDQSB       = 1 << 5
	ErrMonotonicProfile  = 1 << 6
	ErrAlwaysSet         = 1 << 7
)

// Summarize computes the bin-summary row for a closed, DQSB-scored
// bin. id is the row's own sequence number in the output file, not an
// arena id.
func (b *Bin) Summarize(s *Store, ctx *BinningContext, id int) Summary {
	n := len(b.IDs)
	mz := make([]float64, n)
	scans := make([]float64, n)
	intensity := make([]float64, n)
	dqsCenMin := math.Inf(1)
	var sumMZ, sumScan, sumErr, sumBase, sumScaled float64

	for i, cid := range b.IDs {
		c := s.Get(cid)
		mz[i] = c.MZ
		scans[i] = float64(c.Scan)
		intensity[i] = c.Intensity
		sumMZ += c.MZ
		sumScan += float64(c.Scan)
		sumErr += ctx.error(cid)
		sumBase += b.DQSBBase[i]
		sumScaled += b.DQSBScaled[i]
		if c.DQSCen < dqsCenMin {
			dqsCenMin = c.DQSCen
		}
	}

	meanMZ := sumMZ / float64(n)
	meanScans := sumScan / float64(n)
	meanErr := sumErr / float64(n)

	var sumSq float64
	for _, v := range mz {
		d := v - meanMZ
		sumSq += d * d
	}
	stdevMZ := math.Sqrt(sumSq / float64(n))

	// b.IDs is in m/z order; the monotonicity bit reads the intensity
	// profile along the scan axis
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, c int) bool { return scans[order[a]] < scans[order[c]] })
	byScan := make([]float64, n)
	for k, i := range order {
		byScan[k] = intensity[i]
	}

	return Summary{
		ID:         id,
		ErrorCode:  b.errorCode(meanMZ, stdevMZ, byScan, meanErr, sumBase/float64(n)),
		Size:       n,
		MeanMZ:     meanMZ,
		MedianMZ:   b.MedianMZ,
		StdevMZ:    stdevMZ,
		MeanScans:  meanScans,
		DQSBBase:   sumBase / float64(n),
		DQSBScaled: sumScaled / float64(n),
		DQSCenMin:  dqsCenMin,
		MeanError:  meanErr,
	}
}

func (b *Bin) errorCode(meanMZ, stdevMZ float64, intensity []float64, meanErr, meanDQSB float64) int {
	code := ErrAlwaysSet
	if b.DuplicateScan {
		code |= ErrDuplicateScan
	}
	if b.LMaxdistTooClose {
		code |= ErrLeftHotEnd
	}
	if b.RMaxdistTooClose {
		code |= ErrRightHotEnd
	}
	if math.Abs(meanMZ-b.MedianMZ) > 2*meanErr {
		code |= ErrMeanMedianOutlier
	}
	minMZ, maxMZ := meanMZ-3*stdevMZ, meanMZ+3*stdevMZ
	if minMZ < b.LMaxdistAbs || maxMZ > b.RMaxdistAbs {
		code |= ErrThreeSigmaOutside
	}
	if meanDQSB < 0.5 {
		code |= ErrLowMeanDQSB
	}
	if isMonotonic(intensity) {
		code |= ErrMonotonicProfile
	}
	return code
}

// isMonotonic reports whether a sequence is entirely non-decreasing or
// entirely non-increasing -- the shape a real chromatographic peak
// never has, since it must rise then fall.
func isMonotonic(xs []float64) bool {
	if len(xs) < 2 {
		return true
	}
	inc, dec := true, true
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			inc = false
		}
		if xs[i] > xs[i-1] {
			dec = false
		}
	}
	return inc || dec
}
