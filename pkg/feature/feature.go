// Package feature runs the shared regression engine along the
// retention-time axis of a single EIC, turning surviving regressions
// into FeaturePeaks: the final chromatographic-feature output of the
// pipeline.
package feature

import (
	"math"

	"github.com/odea-project/qalgo-go/internal/statistics"
	"github.com/odea-project/qalgo-go/pkg/qbin"
	"github.com/odea-project/qalgo-go/pkg/regress"
)

// Peak is one feature extracted from a single EIC.
type Peak struct {
	MZ        float64
	UMZ       float64
	RT        float64
	URT       float64
	Area      float64
	UArea     float64
	Height    float64
	UHeight   float64
	DQSCen    float64
	DQSBin    float64
	DQSPeak   float64
	StartIdx  int // peak start/end indices into the EIC's point arrays
	EndIdx    int
}

// MinScale/MaxScale bound the regression scales tried per EIC.
const (
	MinScale = 2
	MaxScale = statistics.MaxScale
)

// Extract runs the full per-EIC pipeline: build log-intensities along
// the RT axis (an EIC has no separators -- the whole EIC is one
// block), convolve at every scale in [minScale,maxScale], validate,
// merge within then across scales, and emit one Peak per surviving
// regression, in increasing-RT-apex order (matching the ordering rule
// of spec section 5).
func Extract(eic *qbin.EIC, minScale, maxScale int) ([]Peak, error) {
	n := len(eic.RT)
	if n < 2*minScale+1 {
		return nil, nil
	}

	y := eic.Int
	ylog := make([]float64, n)
	measured := make([]bool, n)
	for i := range y {
		measured[i] = eic.DF[i]
		if y[i] > 0 {
			ylog[i] = math.Log(y[i])
		} else {
			ylog[i] = math.Inf(-1)
		}
	}
	w := regress.Window{Y: y, YLog: ylog, Measured: measured}

	survivorsByScale := make(map[int][]*regress.ValidRegression)
	for s := minScale; s <= maxScale && 2*s+1 <= n; s++ {
		cands, err := regress.Convolve(ylog, s)
		if err != nil {
			continue
		}
		var scaleValid []*regress.ValidRegression
		for _, c := range cands {
			reg, stage := regress.Validate(w, c)
			if stage != "" {
				continue
			}
			scaleValid = append(scaleValid, reg)
		}
		if len(scaleValid) == 0 {
			continue
		}
		survivorsByScale[s] = regress.MergeWithinScale(scaleValid, y)
	}

	final := regress.MergeAcrossScales(survivorsByScale, y)

	peaks := make([]Peak, 0, len(final))
	for _, r := range final {
		peaks = append(peaks, toPeak(eic, r))
	}
	return peaks, nil
}

// toPeak converts a surviving regression into a reported feature,
// interpolating the apex's retention time linearly between the two
// straddling EIC samples, and computing the intensity-weighted m/z and
// DQS summaries over the fit window (spec section 4.5).
func toPeak(eic *qbin.EIC, r *regress.ValidRegression) Peak {
	n := len(eic.RT)
	lo := int(math.Floor(r.ApexPosition))
	hi := lo + 1
	frac := r.ApexPosition - float64(lo)

	lo = clamp(lo, 0, n-1)
	hi = clamp(hi, 0, n-1)

	rt := eic.RT[lo] + frac*(eic.RT[hi]-eic.RT[lo])
	deltaRT := math.Abs(eic.RT[hi] - eic.RT[lo])
	if deltaRT == 0 {
		deltaRT = 1e-9
	}

	tCrit := statistics.TCritical(r.DF + 1)
	urt := r.UPos * deltaRT * tCrit * math.Sqrt(1+1.0/float64(r.DF+4))

	left := clamp(r.LeftLimit, 0, n-1)
	right := clamp(r.RightLimit, 0, n-1)
	mzMean, umz, dqsCenMean := weightedMZAndDQS(eic, left, right)

	dqsBin := meanOver(eic.DQSBin, left, right)
	dqsPeak := statistics.ExpErfc(r.UArea/r.Area, -1)

	return Peak{
		MZ:       mzMean,
		UMZ:      umz,
		RT:       rt,
		URT:      urt,
		Area:     r.Area,
		UArea:    r.UArea,
		Height:   r.Height,
		UHeight:  r.UHeight,
		DQSCen:   dqsCenMean,
		DQSBin:   dqsBin,
		DQSPeak:  dqsPeak,
		StartIdx: left,
		EndIdx:   right,
	}
}

// weightedMZAndDQS computes the intensity-weighted mean m/z and DQS_cen
// over the measured points of [left,right], dividing weights by their
// mean first for numerical stability (spec section 4.5) before forming
// the weighted mean, plus the m/z uncertainty: the standard error of
// that weighted mean, derived from the intensity-weighted variance of
// eic.MZ over the same window (analogous to how centroid.toPeak
// derives umz from the regression's own position uncertainty).
func weightedMZAndDQS(eic *qbin.EIC, left, right int) (mz, umz, dqs float64) {
	var sumW float64
	n := 0
	for i := left; i <= right; i++ {
		if !eic.DF[i] {
			continue
		}
		sumW += eic.Int[i]
		n++
	}
	if n == 0 || sumW == 0 {
		return 0, 0, 0
	}
	meanW := sumW / float64(n)

	var sumMZ, sumDQS, sumNormW float64
	for i := left; i <= right; i++ {
		if !eic.DF[i] {
			continue
		}
		w := eic.Int[i] / meanW
		sumMZ += w * eic.MZ[i]
		sumDQS += w * eic.DQSCen[i]
		sumNormW += w
	}
	mz = sumMZ / sumNormW
	dqs = sumDQS / sumNormW

	var sumSqDev float64
	for i := left; i <= right; i++ {
		if !eic.DF[i] {
			continue
		}
		w := eic.Int[i] / meanW
		dev := eic.MZ[i] - mz
		sumSqDev += w * dev * dev
	}
	variance := sumSqDev / sumNormW
	if n > 1 {
		umz = math.Sqrt(variance / float64(n))
	}
	if umz <= 0 {
		umz = 1e-9
	}
	return mz, umz, dqs
}

func meanOver(xs []float64, left, right int) float64 {
	var sum float64
	n := 0
	for i := left; i <= right && i < len(xs); i++ {
		sum += xs[i]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
