package regress

import (
	"math"
	"testing"
)

func TestAreaValuePositiveForValidPeak(t *testing.T) {
	c := Coeffs{B0: 4, B1: 0.1, B2: -0.06, B3: -0.08}
	area := areaValue(c)
	if area <= 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		t.Fatalf("areaValue = %v, want finite positive", area)
	}
}

func TestAreaValueSymmetricPeakMatchesGaussianIntegral(t *testing.T) {
	// symmetric, b1=0 so both sides share the same curvature magnitude;
	// the closed form then reduces to the Gaussian integral exp(b0)*sqrt(pi/|b2|).
	c := Coeffs{B0: 2, B1: 0, B2: -0.5, B3: -0.5}
	got := areaValue(c)
	want := math.Exp(c.B0) * math.Sqrt(math.Pi/0.5)
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAreaGradientFiniteAndNonZero(t *testing.T) {
	c := Coeffs{B0: 3, B1: 0.05, B2: -0.04, B3: -0.09}
	g := areaGradient(c)
	for k, v := range g {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("areaGradient[%d] = %v, not finite", k, v)
		}
	}
	if g[0] == 0 {
		t.Fatal("d(area)/d(b0) should not be zero: area scales with exp(b0)")
	}
}

func TestAreaWindowedLessThanFullArea(t *testing.T) {
	c := Coeffs{B0: 4, B1: 0, B2: -0.1, B3: -0.1}
	full := areaValue(c)
	windowed := areaWindowed(c, -5, 5, 0)
	if windowed <= 0 || windowed >= full {
		t.Fatalf("windowed area %v should be positive and less than full area %v", windowed, full)
	}
}
