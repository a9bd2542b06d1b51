package statistics

import "math"

// zCut is the 99% two-sided normal range boundary the weight table is
// spread over, per the spec's scaled-distance weight construction.
const zCut = 2.5758

// ScaledDistanceWeights returns the w[j] table for a given maxdist: one
// weight per scan offset from -maxdist to +maxdist, expanded twice (so
// index layout matches the [min, max] candidate-distance pairs DQSB
// collection builds per scan). w[j] = 2 - exp(-x_j^2/2), x_j evenly
// spaced over [-zCut, +zCut], so the weight at the bin center (x=0) is 1
// and grows toward 2 at the extremes of the scan window.
func ScaledDistanceWeights(maxdist int) []float64 {
	n := 2*maxdist + 1
	base := make([]float64, n)
	if n == 1 {
		base[0] = 1
	} else {
		step := 2 * zCut / float64(n-1)
		for j := 0; j < n; j++ {
			x := -zCut + float64(j)*step
			base[j] = 2 - math.Exp(-x*x/2)
		}
	}

	expanded := make([]float64, 2*n)
	for j := 0; j < n; j++ {
		expanded[2*j] = base[j]
		expanded[2*j+1] = base[j]
	}
	return expanded
}
