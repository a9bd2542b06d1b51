package qbin

// Run executes the full qBinning pass over a set of arena ids: the
// recursive m/z split, the scan-gap split on each resulting segment,
// DQSB scoring of every closed bin, and (if enabled) one hot-end
// rebinning cycle.
func Run(ctx *BinningContext, ids []int) []*Bin {
	closed := firstPass(ctx, ids)

	idx := buildScanIndex(ctx.Store)
	for _, b := range closed {
		computeDQSB(ctx, b, idx)
	}

	if !ctx.EnableRebin {
		return closed
	}
	return rebin(ctx, closed, idx)
}

// firstPass runs the m/z-then-scan subset pass once, discarding
// undersized segments to ctx.OutOfBins along the way.
func firstPass(ctx *BinningContext, ids []int) []*Bin {
	var closed []*Bin
	for _, seg := range splitMZ(ctx, ids) {
		closed = append(closed, splitScan(ctx, seg)...)
	}
	return closed
}

// rebin implements the hot-end-driven redo pass: every point from
// ctx.OutOfBins and from any bin flagged hot on either end is
// concatenated into one new open bin, the m/z-then-scan split is run
// on it exactly once more, and the resulting bins take the flagged
// bins' place at the end of the returned list, after the kept ones.
// Bins untouched by either hot-end flag are kept as-is, so no point is
// ever silently dropped.
func rebin(ctx *BinningContext, closed []*Bin, idx scanIndex) []*Bin {
	var stable []*Bin
	var pool []int
	pool = append(pool, ctx.OutOfBins...)
	ctx.OutOfBins = nil

	for _, b := range closed {
		if b.LMaxdistTooClose || b.RMaxdistTooClose {
			pool = append(pool, b.IDs...)
			continue
		}
		stable = append(stable, b)
	}

	if len(pool) == 0 {
		return stable
	}

	redone := firstPass(ctx, pool)
	for _, b := range redone {
		computeDQSB(ctx, b, idx)
	}

	return append(stable, redone...)
}
