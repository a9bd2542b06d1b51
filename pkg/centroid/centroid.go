// Package centroid runs the regression engine along the m/z axis of a
// single treated spectrum, turning surviving regressions into centroid
// peaks: one intensity apex per isotopic/charge signal within a scan.
package centroid

import (
	"math"

	"github.com/odea-project/qalgo-go/internal/statistics"
	"github.com/odea-project/qalgo-go/pkg/regress"
	"github.com/odea-project/qalgo-go/pkg/spectrum"
)

// Peak is one centroid extracted from a single scan.
type Peak struct {
	ScanIndex int
	MZ        float64
	UMZ       float64
	Intensity float64
	UIntensity float64
	Area       float64
	UArea      float64
	DQS        float64
	DF         int
}

// MinScale/MaxScale bound the regression scales tried per spectrum;
// every scale in between that has an inverse table is attempted and
// the survivors merged across scales.
const (
	MinScale = 2
	MaxScale = statistics.MaxScale
)

// Centroid runs the full per-spectrum pipeline: build log-intensities
// for each block of the treated spectrum, convolve at every scale in
// [minScale,maxScale], validate, merge within then across scales, and
// emit one Peak per surviving regression.
func Centroid(ts *spectrum.TreatedSpectrum, minScale, maxScale int) ([]Peak, error) {
	var peaks []Peak

	for block := 0; block < ts.NumBlocks(); block++ {
		pts := ts.Block(block)
		n := len(pts)
		if n < 2*minScale+1 {
			continue
		}

		y := make([]float64, n)
		ylog := make([]float64, n)
		measured := make([]bool, n)
		for i, p := range pts {
			y[i] = p.Intensity
			measured[i] = p.DF
			if p.Intensity > 0 {
				ylog[i] = math.Log(p.Intensity)
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
		for _, r := range final {
			peaks = append(peaks, toPeak(pts, r, block))
		}
	}

	return peaks, nil
}

// toPeak converts a surviving regression into a reported centroid,
// interpolating the apex's m/z linearly between the two straddling raw
// samples and propagating the apex-position uncertainty into an m/z
// uncertainty via the local m/z spacing.
func toPeak(pts []spectrum.RawPoint, r *regress.ValidRegression, scanIndex int) Peak {
	n := len(pts)
	lo := int(math.Floor(r.ApexPosition))
	hi := lo + 1
	frac := r.ApexPosition - float64(lo)

	lo = clamp(lo, 0, n-1)
	hi = clamp(hi, 0, n-1)

	mz := pts[lo].MZ + frac*(pts[hi].MZ-pts[lo].MZ)
	deltaMZ := math.Abs(pts[hi].MZ - pts[lo].MZ)
	if deltaMZ == 0 {
		deltaMZ = 1e-9
	}

	tCrit := statistics.TCritical(r.DF + 1)
	umz := r.UPos * deltaMZ * tCrit * math.Sqrt(1+1.0/float64(r.DF+4))

	dqs := statistics.ExpErfc(r.UArea/r.Area, -1)

	return Peak{
		ScanIndex:  scanIndex,
		MZ:         mz,
		UMZ:        umz,
		Intensity:  r.Height,
		UIntensity: r.UHeight,
		Area:       r.Area,
		UArea:      r.UArea,
		DQS:        dqs,
		DF:         r.DF,
	}
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
