package qbin

// MinBinSize is the minimum accepted bin size; any subset smaller than
// this is discarded to the out-of-bins pool (spec section 4.4).
const MinBinSize = 5

// BinningContext carries the run-wide binning parameters and the two
// pieces of state the original implementation kept as process-wide
// globals (maxdist, outOfBins, duplicatesTotal, scalarForMOD). Per
// section 9's re-modeling guidance it is passed explicitly through
// every qbin function instead.
type BinningContext struct {
	Store *Store

	// MaxDist is the maximum scan-number gap tolerated before a
	// scan-gap split, and the window (in scans) the DQSB neighbour
	// search looks outward from a bin's edges.
	MaxDist int

	// PPM is the fixed mass error used for points whose own MZError
	// is not strictly positive.
	PPM float64

	// EnableRebin turns on the hot-end rebinning pass.
	EnableRebin bool

	// OutOfBins accumulates ids discarded for falling below
	// MinBinSize during either split.
	OutOfBins []int

	// DuplicatesTotal counts zero-scan-distance events seen during
	// scan-gap splitting, across every bin processed so far.
	DuplicatesTotal int

	// weights is the scaled-distance weight table, built lazily for
	// the context's MaxDist.
	weights []float64
}

func (ctx *BinningContext) discard(ids []int) {
	ctx.OutOfBins = append(ctx.OutOfBins, ids...)
}

func (ctx *BinningContext) error(id int) float64 {
	return ctx.Store.Error(id, ctx.PPM)
}
