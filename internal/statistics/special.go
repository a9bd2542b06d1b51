package statistics

import "math"

// Erfc is a thin re-export of the standard library's complementary
// error function, kept here so callers doing closed-form area
// integrals only need to import this one package.
func Erfc(x float64) float64 { return math.Erfc(x) }

// Erf is a thin re-export of the standard library error function.
func Erf(x float64) float64 { return math.Erf(x) }

// Dawson evaluates Dawson's integral F(x) = exp(-x^2) * integral_0^x exp(t^2) dt,
// using its Maclaurin series for |x| < 3.25 (relative error below 1e-9
// there) and a truncated asymptotic series beyond that, whose relative
// error is about 5e-4 at |x| = 3.25, 5e-5 at |x| = 4 and below 1e-6
// from |x| = 6 on.
func Dawson(x float64) float64 {
	if x == 0 {
		return 0
	}
	neg := x < 0
	if neg {
		x = -x
	}

	var result float64
	switch {
	case x < 3.25:
		result = dawsonRational(x)
	default:
		result = dawsonAsymptotic(x)
	}

	if neg {
		return -result
	}
	return result
}

// dawsonRational sums the small/moderate-argument Maclaurin series
// F(x) = x - 2x^3/3 + 4x^5/15 - ..., each term being the previous one
// times -2x^2/(2n+1), until the terms no longer change the sum.
func dawsonRational(x float64) float64 {
	x2 := x * x
	term, sum := x, x
	for n := 1; n < 200; n++ {
		term *= -2 * x2 / float64(2*n+1)
		sum += term
		if math.Abs(term) < 1e-17*math.Abs(sum) {
			break
		}
	}
	return sum
}

// dawsonAsymptotic uses the large-argument asymptotic series
// F(x) ~ 1/(2x) * (1 + 1/(2x^2) + 3/(4x^4) + 15/(8x^6) + ...).
func dawsonAsymptotic(x float64) float64 {
	invX2 := 1 / (x * x)
	series := 1 + invX2*(0.5+invX2*(0.75+invX2*(1.875+invX2*6.5625)))
	return series / (2 * x)
}

// ExpErfc computes erfc(x) in a numerically stable way for the centroid
// DQS formula, which evaluates erfc at a ratio that can legitimately be
// negative (dqs_cen = erfc(u_area/area, -1) per the spec, i.e. erfc
// evaluated at (ratio + shift)/sqrt(2)-scaled argument). shift lets
// callers apply the "-1" offset named in spec section 4.5 without
// duplicating the scaling logic at each call site.
func ExpErfc(ratio, shift float64) float64 {
	arg := (ratio + shift) / math.Sqrt2
	v := math.Erfc(arg)
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}
