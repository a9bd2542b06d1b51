// Package spectrum turns a raw (m/z, intensity) profile scan into a
// TreatedSpectrum ready for the regression kernel: a dense, gapless
// sequence of points split into contiguous blocks at separators, with
// synthetic points marked df=false wherever the instrument's grid
// needed completing.
package spectrum

import (
	"fmt"
	"math"
	"sort"
)

// RawPoint is one m/z-intensity pair within a scan.
type RawPoint struct {
	MZ        float64
	Intensity float64
	DF        bool // true = measured, false = interpolated/extrapolated/zero-filled
}

// TreatedSpectrum is a spectrum prepared for regression: an ordered
// sequence of points, plus the indices at which it is divided into
// contiguous blocks. Regressions never cross a separator.
type TreatedSpectrum struct {
	Points     []RawPoint
	Separators []int // block boundary indices; block k spans [Separators[k], Separators[k+1])
}

// NumBlocks returns the number of contiguous blocks.
func (t *TreatedSpectrum) NumBlocks() int {
	if len(t.Separators) < 2 {
		return 0
	}
	return len(t.Separators) - 1
}

// Block returns the points belonging to block k.
func (t *TreatedSpectrum) Block(k int) []RawPoint {
	return t.Points[t.Separators[k]:t.Separators[k+1]]
}

// epsilonFraction sets the near-zero intensity used for synthetic
// points: a small fraction of the smallest measured intensity in the
// spectrum, rather than an exact zero, so that log-space fitting
// (which requires log(y) to be finite) stays well-defined.
const epsilonFraction = 1e-3

// uniformityCV is the coefficient-of-variation threshold below which a
// grid is treated as uniform (zero-filling only) rather than an
// Orbitrap-style non-uniform grid (cut + interpolate + extrapolate).
const uniformityCV = 0.2

// gapCutMultiplier is how many multiples of the expected step a gap
// must exceed before it is treated as a hard block boundary rather
// than something to fill in.
const gapCutMultiplier = 8.0

// fillMultiplier is how many multiples of the expected step a gap must
// exceed before any synthetic points are inserted at all.
const fillMultiplier = 1.5

// paddingPoints is how many synthetic points are extrapolated onto
// each end of a block, giving the regression kernel enough margin to
// evaluate candidate windows whose apex sits near the original data's
// edge.
const paddingPoints = 8

// GridEstimate summarizes the first-spectrum pre-pass described in the
// external-interfaces section: the expected m/z step, and whether the
// instrument's grid is uniform or requires the full cut/interpolate/
// extrapolate treatment.
type GridEstimate struct {
	ExpectedStep float64
	Uniform      bool
}

// EstimateGrid inspects one representative (typically the first)
// spectrum's m/z axis and decides the grid treatment for the run.
func EstimateGrid(mz []float64) (GridEstimate, error) {
	if len(mz) < 2 {
		return GridEstimate{}, fmt.Errorf("spectrum: need at least 2 points to estimate grid, got %d", len(mz))
	}

	diffs := make([]float64, 0, len(mz)-1)
	for i := 1; i < len(mz); i++ {
		d := mz[i] - mz[i-1]
		if d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return GridEstimate{}, fmt.Errorf("spectrum: m/z axis is not strictly increasing")
	}

	expected := median(diffs)

	var sumSq float64
	for _, d := range diffs {
		delta := d - expected
		sumSq += delta * delta
	}
	stddev := math.Sqrt(sumSq / float64(len(diffs)))
	cv := stddev / expected

	return GridEstimate{ExpectedStep: expected, Uniform: cv < uniformityCV}, nil
}

// Prepare builds a TreatedSpectrum from raw, strictly m/z-ascending
// (mz, intensity) arrays, given the run-level grid estimate.
func Prepare(mz, intensity []float64, grid GridEstimate) (*TreatedSpectrum, error) {
	if len(mz) != len(intensity) {
		return nil, fmt.Errorf("spectrum: mz and intensity length mismatch: %d vs %d", len(mz), len(intensity))
	}
	if len(mz) == 0 {
		return &TreatedSpectrum{Separators: []int{0}}, nil
	}
	if grid.ExpectedStep <= 0 {
		return nil, fmt.Errorf("spectrum: invalid expected step %v", grid.ExpectedStep)
	}

	minIntensity := intensity[0]
	for _, v := range intensity {
		if v > 0 && v < minIntensity || minIntensity <= 0 {
			minIntensity = v
		}
	}
	if minIntensity <= 0 {
		minIntensity = 1
	}
	epsilon := minIntensity * epsilonFraction

	raw := make([]RawPoint, len(mz))
	for i := range mz {
		raw[i] = RawPoint{MZ: mz[i], Intensity: intensity[i], DF: true}
	}

	if grid.Uniform {
		return zeroFill(raw, grid.ExpectedStep, epsilon), nil
	}
	return cutInterpolateExtrapolate(raw, grid.ExpectedStep, epsilon), nil
}

// zeroFill handles the uniform-grid case: small gaps get synthetic
// near-zero points inserted at the expected spacing; gaps too large to
// plausibly belong to the same peak region become a hard separator.
func zeroFill(raw []RawPoint, step, epsilon float64) *TreatedSpectrum {
	out := make([]RawPoint, 0, len(raw))
	separators := []int{0}

	out = append(out, raw[0])
	for i := 1; i < len(raw); i++ {
		gap := raw[i].MZ - raw[i-1].MZ
		nMissing := int(math.Round(gap/step)) - 1

		switch {
		case gap > step*gapCutMultiplier:
			separators = append(separators, len(out))
		case gap > step*fillMultiplier && nMissing > 0:
			for k := 1; k <= nMissing; k++ {
				out = append(out, RawPoint{
					MZ:        raw[i-1].MZ + step*float64(k),
					Intensity: epsilon,
					DF:        false,
				})
			}
		}
		out = append(out, raw[i])
	}
	separators = append(separators, len(out))

	return extrapolateBlocks(out, separators, step, epsilon)
}

// cutInterpolateExtrapolate handles the non-uniform (Orbitrap-style)
// case: cut at large gaps, linearly interpolate missing samples within
// each resulting block, then extrapolate padding onto block edges.
func cutInterpolateExtrapolate(raw []RawPoint, step, epsilon float64) *TreatedSpectrum {
	out := make([]RawPoint, 0, len(raw))
	separators := []int{0}

	out = append(out, raw[0])
	for i := 1; i < len(raw); i++ {
		gap := raw[i].MZ - raw[i-1].MZ
		if gap > step*gapCutMultiplier {
			separators = append(separators, len(out))
			out = append(out, raw[i])
			continue
		}

		nMissing := int(math.Round(gap/step)) - 1
		if nMissing > 0 {
			prev := raw[i-1]
			for k := 1; k <= nMissing; k++ {
				frac := float64(k) / float64(nMissing+1)
				out = append(out, RawPoint{
					MZ:        prev.MZ + gap*frac,
					Intensity: linearInterpolate(prev.Intensity, raw[i].Intensity, frac),
					DF:        false,
				})
			}
		}
		out = append(out, raw[i])
	}
	separators = append(separators, len(out))

	return extrapolateBlocks(out, separators, step, epsilon)
}

// extrapolateBlocks pads paddingPoints synthetic, decaying-to-epsilon
// points onto each end of every block so that regression windows can
// be evaluated with their apex near the original data's edge.
func extrapolateBlocks(points []RawPoint, separators []int, step, epsilon float64) *TreatedSpectrum {
	var outPoints []RawPoint
	newSeparators := make([]int, 0, len(separators))

	for b := 0; b < len(separators)-1; b++ {
		block := points[separators[b]:separators[b+1]]
		if len(block) == 0 {
			continue
		}

		newSeparators = append(newSeparators, len(outPoints))

		first := block[0]
		for k := paddingPoints; k >= 1; k-- {
			frac := float64(k) / float64(paddingPoints+1)
			outPoints = append(outPoints, RawPoint{
				MZ:        first.MZ - step*float64(k),
				Intensity: epsilon + (first.Intensity-epsilon)*(1-frac),
				DF:        false,
			})
		}

		outPoints = append(outPoints, block...)

		last := block[len(block)-1]
		for k := 1; k <= paddingPoints; k++ {
			frac := float64(k) / float64(paddingPoints+1)
			outPoints = append(outPoints, RawPoint{
				MZ:        last.MZ + step*float64(k),
				Intensity: epsilon + (last.Intensity-epsilon)*(1-frac),
				DF:        false,
			})
		}
	}
	newSeparators = append(newSeparators, len(outPoints))

	return &TreatedSpectrum{Points: outPoints, Separators: newSeparators}
}

func linearInterpolate(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
