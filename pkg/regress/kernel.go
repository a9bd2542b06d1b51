package regress

import (
	"fmt"

	"github.com/odea-project/qalgo-go/internal/statistics"
)

// Candidate is one fitted window: the coefficients plus the position
// and scale they were evaluated at.
type Candidate struct {
	Coeffs Coeffs
	Scale  int
	Index0 int // block-coordinate index of the window center
}

// staticPathThreshold mirrors the spec's static/dynamic capacity split.
// Below it, the result slice is preallocated to its exact final size
// (no further growth); at or above it, it grows by appending. The two
// paths are semantically identical — Go slices never force the
// stack/heap distinction the original C++ static buffers existed for.
const staticPathThreshold = 512

// Convolve fits the asymmetric quadratic model at every valid window
// position for one scale over one block's log-intensity values,
// choosing the static or dynamic allocation path by block length.
func Convolve(ylog []float64, scale int) ([]Candidate, error) {
	n := len(ylog)
	if n < 2*scale+1 {
		return nil, fmt.Errorf("regress: window too small: n=%d, need >= %d for scale %d", n, 2*scale+1, scale)
	}

	if n < staticPathThreshold {
		return convolveStatic(ylog, scale)
	}
	return convolveDynamic(ylog, scale)
}

func convolveStatic(ylog []float64, scale int) ([]Candidate, error) {
	n := len(ylog)
	out := make([]Candidate, 0, n-2*scale)
	return convolveInto(out, ylog, scale)
}

func convolveDynamic(ylog []float64, scale int) ([]Candidate, error) {
	var out []Candidate
	return convolveInto(out, ylog, scale)
}

// convolveInto runs the actual sliding-window fit. For each center
// position i in [scale, n-scale), it builds the right-hand side of the
// normal equations (the four partial sums the design matrix's columns
// dot with the window) and multiplies by the scale's precomputed
// inverse matrix. The right-hand side is built in the (b0, b1, b2, b3)
// order of predictLog, so the product is already in canonical order and
// no sign or lane fixup follows.
func convolveInto(out []Candidate, ylog []float64, scale int) ([]Candidate, error) {
	inv := statistics.Inverse(scale)
	if inv == (statistics.ScaleInverse{}) {
		return nil, fmt.Errorf("regress: no inverse table for scale %d", scale)
	}
	full := inv.Full()

	n := len(ylog)
	for i := scale; i < n-scale; i++ {
		var rhs0, rhs1, rhs2, rhs3 float64
		for j := -scale; j <= scale; j++ {
			y := ylog[i+j]
			x := float64(j)
			rhs0 += y
			rhs1 += x * y
			if j < 0 {
				rhs2 += x * x * y
			} else {
				rhs3 += x * x * y
			}
		}
		rhs := [4]float64{rhs0, rhs1, rhs2, rhs3}

		var b [4]float64
		for r := 0; r < 4; r++ {
			var sum float64
			for c := 0; c < 4; c++ {
				sum += full[r][c] * rhs[c]
			}
			b[r] = sum
		}

		out = append(out, Candidate{
			Coeffs: Coeffs{B0: b[0], B1: b[1], B2: b[2], B3: b[3]},
			Scale:  scale,
			Index0: i,
		})
	}

	return out, nil
}
