package regress

import (
	"math"
	"sort"
)

// MergeWithinScale removes duplicates among regressions found at the
// same scale: candidates are grouped by apex proximity and window
// overlap, and within each group only the lowest-mse member survives.
// Groups of size 1 pass through untouched. Regressions found but not
// surviving have their Valid flag cleared; the returned slice holds
// only the survivors, in ascending-apex order.
func MergeWithinScale(regs []*ValidRegression, y []float64) []*ValidRegression {
	sorted := append([]*ValidRegression(nil), regs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ApexPosition < sorted[j].ApexPosition })

	var groups [][]*ValidRegression
	for _, r := range sorted {
		placed := false
		for gi := range groups {
			anchor := groups[gi][len(groups[gi])-1]
			if sameGroup(anchor, r) {
				groups[gi] = append(groups[gi], r)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []*ValidRegression{r})
		}
	}

	var survivors []*ValidRegression
	for _, g := range groups {
		if len(g) == 1 {
			survivors = append(survivors, g[0])
			continue
		}

		minLeft, maxRight := g[0].LeftLimit, g[0].RightLimit
		for _, m := range g[1:] {
			minLeft = minInt(minLeft, m.LeftLimit)
			maxRight = maxInt(maxRight, m.RightLimit)
		}

		best := g[0]
		best.MSE = mseOnWindow(y, best.Coeffs, minLeft, maxRight, best.Index0)
		for _, m := range g[1:] {
			m.MSE = mseOnWindow(y, m.Coeffs, minLeft, maxRight, m.Index0)
			if m.MSE < best.MSE {
				best = m
			}
		}
		for _, m := range g {
			if m != best {
				m.Valid = false
			}
		}
		survivors = append(survivors, best)
	}

	return survivors
}

// sameGroup implements the within-scale grouping rule: both the apex
// proximity test and the window-overlap test must hold.
func sameGroup(a, b *ValidRegression) bool {
	if absF(a.ApexPosition-b.ApexPosition) > 4 {
		return false
	}
	aInB := b.ApexPosition > a.ApexPosition-float64(a.Scale) && b.ApexPosition < a.ApexPosition+float64(a.Scale)
	bInA := a.ApexPosition > b.ApexPosition-float64(b.Scale) && a.ApexPosition < b.ApexPosition+float64(b.Scale)
	return aInB || bInA
}

// MergeAcrossScales merges the per-scale survivors (keyed by scale)
// into a single de-duplicated list, processing scales ascending. New,
// higher-scale candidates compete against already-kept lower-scale
// survivors whose window overlaps them.
func MergeAcrossScales(survivorsByScale map[int][]*ValidRegression, y []float64) []*ValidRegression {
	scales := make([]int, 0, len(survivorsByScale))
	for s := range survivorsByScale {
		scales = append(scales, s)
	}
	sort.Ints(scales)

	var kept []*ValidRegression

	for _, s := range scales {
		cands := append([]*ValidRegression(nil), survivorsByScale[s]...)
		sort.Slice(cands, func(i, j int) bool { return cands[i].ApexPosition < cands[j].ApexPosition })

		for _, cand := range cands {
			var overlapping []*ValidRegression
			for _, k := range kept {
				if k.Scale >= s {
					continue
				}
				if apexInWindow(k.ApexPosition, cand) || apexInWindow(cand.ApexPosition, k) {
					overlapping = append(overlapping, k)
				}
			}

			switch len(overlapping) {
			case 0:
				kept = append(kept, cand)

			case 1:
				o := overlapping[0]
				minLeft := minInt(o.LeftLimit, cand.LeftLimit)
				maxRight := maxInt(o.RightLimit, cand.RightLimit)
				oMSE := mseOnWindow(y, o.Coeffs, minLeft, maxRight, o.Index0)
				cMSE := mseOnWindow(y, cand.Coeffs, minLeft, maxRight, cand.Index0)
				if cMSE < oMSE {
					o.Valid = false
					kept = removeRegression(kept, o)
					cand.MSE = cMSE
					kept = append(kept, cand)
				} else {
					cand.Valid = false
				}

			default:
				minLeft, maxRight := overlapping[0].LeftLimit, overlapping[0].RightLimit
				for _, o := range overlapping[1:] {
					minLeft = minInt(minLeft, o.LeftLimit)
					maxRight = maxInt(maxRight, o.RightLimit)
				}

				var sumMseDF, sumDF float64
				for _, o := range overlapping {
					mse := mseOnWindow(y, o.Coeffs, minLeft, maxRight, o.Index0)
					sumMseDF += mse * float64(o.DF)
					sumDF += float64(o.DF)
				}
				groupMSE := sumMseDF / sumDF

				cMSE := mseOnWindow(y, cand.Coeffs, minLeft, maxRight, cand.Index0)
				if cMSE < groupMSE {
					for _, o := range overlapping {
						o.Valid = false
						kept = removeRegression(kept, o)
					}
					cand.MSE = cMSE
					kept = append(kept, cand)
				} else {
					cand.Valid = false
				}
			}
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].ApexPosition < kept[j].ApexPosition })
	return kept
}

func apexInWindow(apex float64, r *ValidRegression) bool {
	return apex >= float64(r.LeftLimit) && apex <= float64(r.RightLimit)
}

func removeRegression(list []*ValidRegression, target *ValidRegression) []*ValidRegression {
	out := list[:0:0]
	for _, r := range list {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

// mseOnWindow computes the exp-space mean squared error of a single
// regression's fitted curve against the raw intensities, over
// [left,right] in absolute block coordinates (typically the union
// window of a competing group).
func mseOnWindow(y []float64, c Coeffs, left, right, center int) float64 {
	var sse float64
	n := 0
	for k := left; k <= right; k++ {
		if k < 0 || k >= len(y) {
			continue
		}
		x := float64(k - center)
		yhat := math.Exp(predictLog(c, x))
		diff := y[k] - yhat
		sse += diff * diff
		n++
	}
	df := n - 4
	if df < 1 {
		df = 1
	}
	return sse / float64(df)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
