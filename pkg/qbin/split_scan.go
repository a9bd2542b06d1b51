package qbin

import "sort"

// splitScan partitions one m/z-stable segment into scan-contiguous
// bins: sort by scan number and cut wherever consecutive points differ
// by more than ctx.MaxDist. A gap of exactly 0 (two points in the same
// scan) does not cut, but flags the resulting bin as containing a
// duplicate scan and increments the run-wide duplicate counter.
// Sub-bins below MinBinSize are discarded to ctx.OutOfBins. Each
// surviving sub-bin becomes a closed Bin.
func splitScan(ctx *BinningContext, ids []int) []*Bin {
	if len(ids) < MinBinSize {
		ctx.discard(ids)
		return nil
	}

	s := ctx.Store
	sorted := append([]int(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return s.Get(sorted[i]).Scan < s.Get(sorted[j]).Scan })

	var bins []*Bin
	start := 0
	duplicate := false

	flush := func(end int) {
		seg := sorted[start:end]
		if len(seg) < MinBinSize {
			ctx.discard(seg)
		} else {
			b := &Bin{IDs: append([]int(nil), seg...), DuplicateScan: duplicate}
			b.sortByMZ(s)
			bins = append(bins, b)
		}
		duplicate = false
	}

	for i := 1; i < len(sorted); i++ {
		dist := s.Get(sorted[i]).Scan - s.Get(sorted[i-1]).Scan
		switch {
		case dist == 0:
			duplicate = true
			ctx.DuplicatesTotal++
		case dist > ctx.MaxDist:
			flush(i)
			start = i
		}
	}
	flush(len(sorted))

	return bins
}
