package regress

import (
	"math"

	"github.com/odea-project/qalgo-go/internal/statistics"
)

// areaValue computes the closed-form area under the fitted curve,
// integrated over the whole real line on each side:
//
//	A = exp(b0) * (J_L + J_R)
//
// where, for side s with coefficient bs and u_s = b1/(2*sqrt(|bs|)):
//   - bs < 0: J_s = exp(b1^2/(4|bs|)) * sqrt(pi/(4|bs|)) * erfc(u_s)   [left: -u_s, right: +u_s]
//   - bs > 0: J_s = exp(-b1^2/(4bs)) * Dawson(u_s) * 2/sqrt(bs)        [left: +u_s, right: -u_s]
func areaValue(c Coeffs) float64 {
	jL := sideIntegral(c.B1, c.B2, -1)
	jR := sideIntegral(c.B1, c.B3, +1)
	return math.Exp(c.B0) * (jL + jR)
}

// sideIntegral evaluates J_s for one side; sign is -1 for the left
// side and +1 for the right side, controlling which way u_s is signed
// in the erfc/Dawson argument.
func sideIntegral(b1, bs float64, sign float64) float64 {
	absBs := math.Abs(bs)
	if absBs == 0 {
		return 0
	}
	u := b1 / (2 * math.Sqrt(absBs))

	if bs < 0 {
		return math.Exp(b1*b1/(4*absBs)) * math.Sqrt(math.Pi/(4*absBs)) * statistics.Erfc(sign*u)
	}
	return math.Exp(-b1*b1/(4*bs)) * statistics.Dawson(-sign*u) * 2 / math.Sqrt(bs)
}

// areaGradient numerically differentiates areaValue with respect to
// each coefficient; the closed form above is not worth re-deriving by
// hand for its exact partials when central differences give the same
// precision the rest of the cascade already works at (mse-scaled
// uncertainties never need more than a handful of significant digits).
func areaGradient(c Coeffs) [4]float64 {
	const h = 1e-5
	var g [4]float64
	g[0] = (areaValue(Coeffs{c.B0 + h, c.B1, c.B2, c.B3}) - areaValue(Coeffs{c.B0 - h, c.B1, c.B2, c.B3})) / (2 * h)
	g[1] = (areaValue(Coeffs{c.B0, c.B1 + h, c.B2, c.B3}) - areaValue(Coeffs{c.B0, c.B1 - h, c.B2, c.B3})) / (2 * h)
	g[2] = (areaValue(Coeffs{c.B0, c.B1, c.B2 + h, c.B3}) - areaValue(Coeffs{c.B0, c.B1, c.B2 - h, c.B3})) / (2 * h)
	g[3] = (areaValue(Coeffs{c.B0, c.B1, c.B2, c.B3 + h}) - areaValue(Coeffs{c.B0, c.B1, c.B2, c.B3 - h})) / (2 * h)
	return g
}

// areaWindowed is the closed-form counterpart to areaValue, integrated
// only over [left,right] instead of the whole real line on each side:
// the "area in window" used by the significance test that guards
// against windows too narrow to see the whole peak (spec section 4.2,
// step 9; original_source/src/qalgorithms_qpeaks.cpp's
// isValidPeakArea). left/right are already shrunk to the valley when
// one exists (Validate step 4), so they are exactly the bound each
// side's closed form should stop at.
//
// A trapezoidal half-sample correction is subtracted at each boundary,
// matching the original's trpzd_* terms: the closed form integrates
// the continuous model exactly up to the boundary sample, while the
// window's discrete edge is conventionally weighted as half a sample
// in a composite trapezoidal sum, so the model's boundary value is
// discounted by that half-weight on each side.
func areaWindowed(c Coeffs, left, right, center int) float64 {
	p := float64(left - center)
	q := float64(right - center)

	windowed := windowedSideIntegralLeft(c.B1, c.B2, p) + windowedSideIntegralRight(c.B1, c.B3, q)

	// boundary values without the exp(b0) factor, like the integrals
	// above; the common factor is applied once below
	yLeft := math.Exp(predictLog(c, p) - c.B0)
	yRight := math.Exp(predictLog(c, q) - c.B0)
	trapezoidCorrection := 0.5 * (yLeft + yRight)

	return math.Exp(c.B0) * (windowed - trapezoidCorrection)
}

// windowedSideIntegralLeft evaluates integral_{bound}^{0} exp(b1*x+bs*x^2) dx,
// bound <= 0, for both the decaying (bs<0) and valley (bs>0) branches.
func windowedSideIntegralLeft(b1, bs, bound float64) float64 {
	absBs := math.Abs(bs)
	if absBs == 0 || bound == 0 {
		return 0
	}
	u := b1 / (2 * math.Sqrt(absBs))
	sqrtA := math.Sqrt(absBs)

	if bs < 0 {
		return math.Exp(u*u) * math.Sqrt(math.Pi/(4*absBs)) * (statistics.Erfc(u) - statistics.Erfc(u-sqrtA*bound))
	}
	t := sqrtA*bound + u
	return (statistics.Dawson(u) - math.Exp(t*t-u*u)*statistics.Dawson(t)) / sqrtA
}

// windowedSideIntegralRight evaluates integral_{0}^{bound} exp(b1*x+bs*x^2) dx,
// bound >= 0, for both branches.
func windowedSideIntegralRight(b1, bs, bound float64) float64 {
	absBs := math.Abs(bs)
	if absBs == 0 || bound == 0 {
		return 0
	}
	u := b1 / (2 * math.Sqrt(absBs))
	sqrtA := math.Sqrt(absBs)

	if bs < 0 {
		t := sqrtA*bound - u
		return math.Exp(u*u) * math.Sqrt(math.Pi/(4*absBs)) * (statistics.Erfc(-u) - statistics.Erfc(t))
	}
	t := sqrtA*bound + u
	return (math.Exp(t*t-u*u)*statistics.Dawson(t) - statistics.Dawson(u)) / sqrtA
}

// areaWindowedGradient numerically differentiates areaWindowed, the
// same central-difference approach areaGradient already uses for the
// unwindowed area.
func areaWindowedGradient(c Coeffs, left, right, center int) [4]float64 {
	const h = 1e-5
	eval := func(cc Coeffs) float64 { return areaWindowed(cc, left, right, center) }
	var g [4]float64
	g[0] = (eval(Coeffs{c.B0 + h, c.B1, c.B2, c.B3}) - eval(Coeffs{c.B0 - h, c.B1, c.B2, c.B3})) / (2 * h)
	g[1] = (eval(Coeffs{c.B0, c.B1 + h, c.B2, c.B3}) - eval(Coeffs{c.B0, c.B1 - h, c.B2, c.B3})) / (2 * h)
	g[2] = (eval(Coeffs{c.B0, c.B1, c.B2 + h, c.B3}) - eval(Coeffs{c.B0, c.B1, c.B2 - h, c.B3})) / (2 * h)
	g[3] = (eval(Coeffs{c.B0, c.B1, c.B2, c.B3 + h}) - eval(Coeffs{c.B0, c.B1, c.B2, c.B3 - h})) / (2 * h)
	return g
}
