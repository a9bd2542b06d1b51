// Package regress implements the shared regression engine: the
// asymmetric quadratic-exponential convolution kernel, the statistical
// validator cascade, and the duplicate-removing merger. It is used
// both along the m/z axis (per spectrum, by pkg/centroid) and along
// the retention-time axis (per EIC, by pkg/feature).
package regress

// Coeffs are the four fitted parameters of
//
//	ylog(x) = b0 + b1*x + b2*x^2*[x<0] + b3*x^2*[x>=0],  x in [-s, s].
type Coeffs struct {
	B0, B1, B2, B3 float64
}

// Side identifies which half of the window a quadratic term, apex or
// valley belongs to.
type Side int

const (
	Left Side = iota
	Right
)

// ValidRegression is a candidate that survived the full validator
// cascade, with its derived geometry, uncertainties and (initially
// unknown) residual statistics.
type ValidRegression struct {
	Coeffs Coeffs
	Scale  int

	// Index0 is the block-coordinate index of the window's center
	// sample (the position the convolution was evaluated at).
	Index0 int

	// ApexPosition is the fitted apex, in absolute block coordinates
	// (Index0 + the local apex offset).
	ApexPosition float64
	ApexSide     Side

	// LeftLimit/RightLimit bound the (possibly valley-shrunk) window
	// in absolute block coordinates.
	LeftLimit  int
	RightLimit int

	// DF is the count of measured (non-interpolated) points inside
	// [LeftLimit, RightLimit].
	DF int

	Area    float64
	UArea   float64
	UPos    float64
	Height  float64
	UHeight float64

	// MSE is the exp-space mean squared error the merger last computed
	// for this regression, on the union window of the competition it
	// took part in; 0 means "not yet computed".
	MSE float64

	Valid bool
}

// WindowWidth returns the number of samples in the closed window
// [LeftLimit, RightLimit].
func (v *ValidRegression) WindowWidth() int {
	return v.RightLimit - v.LeftLimit + 1
}
