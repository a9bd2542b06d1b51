package regress

import (
	"math"

	"github.com/odea-project/qalgo-go/internal/statistics"
)

// RejectStage names the validator stage a candidate failed at, used
// only for metrics/logging; soft rejections are never returned as an
// error (see pkg/logging and internal/telemetry).
type RejectStage string

const (
	StageDFFloor          RejectStage = "df_floor"
	StageNonDegenerate     RejectStage = "non_degenerate"
	StageGeometry          RejectStage = "geometry"
	StageWindowedDF        RejectStage = "windowed_df"
	StageAreaPrefilter     RejectStage = "area_prefilter"
	StageApexEdgeRatio     RejectStage = "apex_edge_ratio"
	StageQuadraticTerm     RejectStage = "quadratic_term"
	StageHeightSignificant RejectStage = "height_significance"
	StageAreaSignificant   RejectStage = "area_significance"
	StageChiSquare         RejectStage = "chi_square"
)

// Window is the per-block data the validator reads from: actual
// intensities, the measured/interpolated flag, and the same values'
// log-space transform the kernel was fit against.
type Window struct {
	Y        []float64
	Measured []bool
	YLog     []float64
}

// Validate runs the full statistical cascade (spec section 4.2) on one
// candidate and returns the accepted ValidRegression, or the stage it
// was rejected at.
func Validate(w Window, cand Candidate) (*ValidRegression, RejectStage) {
	s := cand.Scale
	i := cand.Index0
	c := cand.Coeffs
	left0, right0 := i-s, i+s

	// 1. degree-of-freedom floor
	df0 := calcDF(w.Measured, left0, right0)
	if df0 <= 4 {
		return nil, StageDFFloor
	}

	// 2. non-degeneracy
	if c.B2 == 0 || c.B3 == 0 {
		return nil, StageNonDegenerate
	}

	// 3. apex/valley geometry
	apex, side, hasApex, valley, hasValley := apexValley(c)
	if !hasApex {
		return nil, StageGeometry
	}
	edge := float64(s - 1)
	if apex >= edge || apex <= -edge {
		return nil, StageGeometry
	}
	if hasValley && absF(valley-apex) < 2 {
		return nil, StageGeometry
	}

	// 4. windowed DF: shrink toward the valley, if one exists
	left, right := left0, right0
	if hasValley {
		valleyAbs := i + int(math.Round(valley))
		if valley < 0 && valleyAbs > left {
			left = valleyAbs
		} else if valley >= 0 && valleyAbs < right {
			right = valleyAbs
		}
	}
	df := calcDF(w.Measured, left, right)
	if df < 5 {
		return nil, StageWindowedDF
	}

	// 5. area prefilter: keeps later exp/erf arguments numerically safe
	apexB1 := apex * c.B1
	valleyB1 := 0.0
	if hasValley {
		valleyB1 = valley * c.B1
	}
	if apexB1 > 50 || (hasValley && valleyB1 < -50) {
		return nil, StageAreaPrefilter
	}

	// 6. apex-to-edge ratio
	apexIdx := clampIdx(i+int(math.Round(apex)), len(w.Y))
	yApex := w.Y[apexIdx]
	yLeftEdge := w.Y[clampIdx(left, len(w.Y))]
	yRightEdge := w.Y[clampIdx(right, len(w.Y))]
	edgeMin := math.Min(yLeftEdge, yRightEdge)
	if edgeMin <= 0 || yApex/edgeMin <= 2 {
		return nil, StageApexEdgeRatio
	}

	// 7. quadratic-term t-test
	mse := sseLog(w.YLog, left, right, i, c) / float64(df-4)
	inv := statistics.Inverse(s)
	full := inv.Full()
	tStat := math.Max(math.Abs(c.B2), math.Abs(c.B3)) / math.Sqrt(inv.I22*mse)
	tCrit := statistics.TCritical(df)
	if tStat <= tCrit {
		return nil, StageQuadraticTerm
	}

	// 8. height significance (log-space SE, then a second check on the
	// height minus twice the edge signal, using a Jacobian that cancels
	// the shared offset term).
	apexJ := jacobianAt(apex)
	logHeight := predictLog(c, apex)
	uLogHeight := math.Sqrt(mse * quadForm(apexJ, full))
	if uLogHeight <= 0 || 1/uLogHeight <= tCrit {
		return nil, StageHeightSignificant
	}

	edgeX := float64(left - i)
	if yRightEdge < yLeftEdge {
		edgeX = float64(right - i)
	}
	edgeJ := jacobianAt(edgeX)
	var diffJ [4]float64
	for k := range diffJ {
		diffJ[k] = apexJ[k] - 2*edgeJ[k]
	}
	uDiff := math.Sqrt(mse * quadForm(diffJ, full))
	if uDiff <= 0 || 1/uDiff <= tCrit {
		return nil, StageHeightSignificant
	}

	// 9. area significance, plus the windowed/covered-area variant
	area := areaValue(c)
	if area <= 0 {
		return nil, StageAreaSignificant
	}
	areaGrad := areaGradient(c)
	uArea := math.Sqrt(mse * quadForm(areaGrad, full))
	if uArea <= 0 || area/uArea <= tCrit {
		return nil, StageAreaSignificant
	}

	windowedArea := areaWindowed(c, left, right, i)
	if windowedArea <= 0 {
		return nil, StageAreaSignificant
	}
	windowedGrad := areaWindowedGradient(c, left, right, i)
	uWindowedArea := math.Sqrt(mse * quadForm(windowedGrad, full))
	if uWindowedArea <= 0 || windowedArea/uWindowedArea <= tCrit {
		return nil, StageAreaSignificant
	}

	// 10. chi-square goodness of fit, over the full [-s, s] window;
	// samples whose reconstruction is too close to zero are skipped
	// rather than widening the window (see DESIGN.md open question).
	chi2 := chiSquare(w.Y, c, left0, right0, i)
	if chi2 < statistics.ChiSquareCritical(df) {
		return nil, StageChiSquare
	}

	uPos := positionUncertainty(c, side, mse, full)

	finalHeight := math.Exp(logHeight)
	finalUHeight := finalHeight * uLogHeight

	return &ValidRegression{
		Coeffs:       c,
		Scale:        s,
		Index0:       i,
		ApexPosition: float64(i) + apex,
		ApexSide:     side,
		LeftLimit:    left,
		RightLimit:   right,
		DF:           df,
		Area:         area,
		UArea:        uArea,
		UPos:         uPos,
		Height:       finalHeight,
		UHeight:      finalUHeight,
		MSE:          0,
		Valid:        true,
	}, ""
}

func calcDF(measured []bool, left, right int) int {
	left = clampIdx(left, len(measured))
	right = clampIdx(right, len(measured))
	count := 0
	for k := left; k <= right; k++ {
		if measured[k] {
			count++
		}
	}
	return count
}

func clampIdx(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// apexValley derives the apex position (and side) and, if present, the
// valley on the opposite side, from the fitted coefficients.
func apexValley(c Coeffs) (apex float64, side Side, hasApex bool, valley float64, hasValley bool) {
	if c.B2 < 0 {
		a := -c.B1 / (2 * c.B2)
		if a <= 0 {
			apex, side, hasApex = a, Left, true
		}
	}
	if !hasApex && c.B3 < 0 {
		a := -c.B1 / (2 * c.B3)
		if a >= 0 {
			apex, side, hasApex = a, Right, true
		}
	}
	if !hasApex {
		return
	}

	switch side {
	case Left:
		if c.B3 > 0 {
			v := -c.B1 / (2 * c.B3)
			if v >= 0 {
				valley, hasValley = v, true
			}
		}
	case Right:
		if c.B2 > 0 {
			v := -c.B1 / (2 * c.B2)
			if v <= 0 {
				valley, hasValley = v, true
			}
		}
	}
	return
}

func predictLog(c Coeffs, x float64) float64 {
	if x < 0 {
		return c.B0 + c.B1*x + c.B2*x*x
	}
	return c.B0 + c.B1*x + c.B3*x*x
}

func sseLog(ylog []float64, left, right, center int, c Coeffs) float64 {
	var sse float64
	for k := left; k <= right; k++ {
		x := float64(k - center)
		diff := ylog[k] - predictLog(c, x)
		sse += diff * diff
	}
	return sse
}

// jacobianAt returns d(predictLog)/d(b0,b1,b2,b3) at local coordinate x.
func jacobianAt(x float64) [4]float64 {
	if x < 0 {
		return [4]float64{1, x, x * x, 0}
	}
	return [4]float64{1, x, 0, x * x}
}

func quadForm(j [4]float64, inv [4][4]float64) float64 {
	var tmp [4]float64
	for r := 0; r < 4; r++ {
		var sum float64
		for c := 0; c < 4; c++ {
			sum += inv[r][c] * j[c]
		}
		tmp[r] = sum
	}
	var result float64
	for r := 0; r < 4; r++ {
		result += j[r] * tmp[r]
	}
	return result
}

// positionUncertainty propagates the uncertainty of apex = -b1/(2*bs)
// through the fitted covariance, where bs is the apex side's quadratic
// coefficient.
func positionUncertainty(c Coeffs, side Side, mse float64, inv [4][4]float64) float64 {
	var bs float64
	var j [4]float64
	if side == Left {
		bs = c.B2
		j = [4]float64{0, -1 / (2 * bs), c.B1 / (2 * bs * bs), 0}
	} else {
		bs = c.B3
		j = [4]float64{0, -1 / (2 * bs), 0, c.B1 / (2 * bs * bs)}
	}
	return math.Sqrt(mse * quadForm(j, inv))
}

// chiSquare evaluates the goodness-of-fit statistic over [left,right]
// in absolute block coordinates, centered at center.
func chiSquare(y []float64, c Coeffs, left, right, center int) float64 {
	const reconstructionFloor = 1e-9
	var chi2 float64
	for k := left; k <= right; k++ {
		x := float64(k - center)
		yNew := math.Exp(predictLog(c, x))
		if yNew < reconstructionFloor {
			continue
		}
		diff := y[k] - yNew
		chi2 += diff * diff / yNew
	}
	return chi2
}
