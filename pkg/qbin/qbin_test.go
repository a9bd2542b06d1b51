package qbin

import "testing"

func newTestStore(t *testing.T, rows [][4]float64) (*Store, []int) {
	t.Helper()
	s := NewStore()
	var ids []int
	for _, r := range rows {
		ids = append(ids, s.Add(Centroid{MZ: r[0], Scan: int(r[1]), Intensity: r[2], MZError: r[3], DQSCen: 0.9}))
	}
	return s, ids
}

// Scenario 4: three m/z clusters across scans, 5ppm error. Each cluster
// carries a small deterministic m/z spread (+-1e-4, well inside 5ppm):
// with identical m/z values MID is 0 and every DQSB is exactly 1.
func TestRun_ThreeClustersAcrossScans(t *testing.T) {
	var rows [][4]float64
	for scan := 1; scan <= 10; scan++ {
		jitter := float64(scan%3-1) * 1e-4
		rows = append(rows,
			[4]float64{100.0 + jitter, float64(scan), 1000, 100.0 * 5e-6},
			[4]float64{100.05 + jitter, float64(scan), 1000, 100.05 * 5e-6},
			[4]float64{200.0 + jitter, float64(scan), 1000, 200.0 * 5e-6},
		)
	}
	s, ids := newTestStore(t, rows)
	ctx := &BinningContext{Store: s, MaxDist: 6, PPM: 5, EnableRebin: false}

	bins := Run(ctx, ids)
	if len(bins) != 3 {
		t.Fatalf("expected 3 closed bins, got %d", len(bins))
	}

	var isolated, adjacent []*Bin
	for _, b := range bins {
		if b.MedianMZ > 150 {
			isolated = append(isolated, b)
		} else {
			adjacent = append(adjacent, b)
		}
	}
	if len(isolated) != 1 || len(adjacent) != 2 {
		t.Fatalf("expected 1 isolated + 2 adjacent bins, got %d/%d", len(isolated), len(adjacent))
	}

	meanDQSB := func(b *Bin) float64 {
		var sum float64
		for _, v := range b.DQSBBase {
			sum += v
		}
		return sum / float64(len(b.DQSBBase))
	}
	isoMean := meanDQSB(isolated[0])
	for _, b := range adjacent {
		if isoMean <= meanDQSB(b) {
			t.Errorf("expected isolated cluster DQSB (%v) > adjacent cluster DQSB (%v)", isoMean, meanDQSB(b))
		}
	}
}

// Scenario 5: a scan gap of maxdist+1 splits a single cluster in two.
func TestRun_ScanGapSplitsCluster(t *testing.T) {
	var rows [][4]float64
	for _, scan := range []int{1, 2, 3, 4, 5, 12, 13, 14, 15, 16} {
		rows = append(rows, [4]float64{500.0, float64(scan), 1000, 500.0 * 5e-6})
	}
	s, ids := newTestStore(t, rows)
	ctx := &BinningContext{Store: s, MaxDist: 6, PPM: 5, EnableRebin: false}

	bins := Run(ctx, ids)
	if len(bins) != 2 {
		t.Fatalf("expected 2 bins from the oversized gap, got %d", len(bins))
	}
}

// maxdist=0 collapses every scan-split to per-scan bins: with fewer
// than MinBinSize points per scan, every point is discarded.
func TestSplitScan_MaxDistZero(t *testing.T) {
	var rows [][4]float64
	for _, scan := range []int{1, 1, 1, 1, 1, 1} {
		rows = append(rows, [4]float64{10.0, float64(scan), 1000, 10.0 * 5e-6})
	}
	s, ids := newTestStore(t, rows)
	ctx := &BinningContext{Store: s, MaxDist: 0, PPM: 5}

	bins := splitScan(ctx, ids)
	if len(bins) != 1 {
		t.Fatalf("expected one same-scan bin, got %d", len(bins))
	}
	if !bins[0].DuplicateScan {
		t.Errorf("expected duplicate-scan flag set")
	}
}

// A bin of exactly MinBinSize points is allowed; one fewer is not.
func TestSplitScan_MinSizeBoundary(t *testing.T) {
	s := NewStore()
	var ids []int
	for i := 0; i < MinBinSize; i++ {
		ids = append(ids, s.Add(Centroid{MZ: 10.0, Scan: i + 1, Intensity: 100}))
	}
	ctx := &BinningContext{Store: s, MaxDist: 6}
	bins := splitScan(ctx, ids)
	if len(bins) != 1 || len(bins[0].IDs) != MinBinSize {
		t.Fatalf("expected exactly one bin of size %d", MinBinSize)
	}

	s2 := NewStore()
	var short []int
	for i := 0; i < MinBinSize-1; i++ {
		short = append(short, s2.Add(Centroid{MZ: 10.0, Scan: i + 1, Intensity: 100}))
	}
	ctx2 := &BinningContext{Store: s2, MaxDist: 6}
	bins2 := splitScan(ctx2, short)
	if len(bins2) != 0 {
		t.Fatalf("expected a sub-MinBinSize segment to be discarded, got %d bins", len(bins2))
	}
	if len(ctx2.OutOfBins) != MinBinSize-1 {
		t.Errorf("expected discarded points in OutOfBins, got %d", len(ctx2.OutOfBins))
	}
}

// Round trip: a single scan's worth of centroids split purely on m/z
// clusters, with no scan-split possible (only one scan present).
func TestRun_SingleScanNoScanSplit(t *testing.T) {
	var rows [][4]float64
	for _, mz := range []float64{100.0, 100.001, 100.002, 100.003, 100.004, 100.005, 300.0, 300.001, 300.002, 300.003, 300.004, 300.005} {
		rows = append(rows, [4]float64{mz, 1, 1000, mz * 5e-6})
	}
	s, ids := newTestStore(t, rows)
	ctx := &BinningContext{Store: s, MaxDist: 6, PPM: 5, EnableRebin: false}

	bins := Run(ctx, ids)
	for _, b := range bins {
		lo, hi := b.ScanRange(s)
		if lo != hi {
			t.Errorf("expected every bin confined to scan 1, got [%d,%d]", lo, hi)
		}
	}
}

func TestBin_Invariants(t *testing.T) {
	var rows [][4]float64
	for scan := 1; scan <= 8; scan++ {
		rows = append(rows, [4]float64{42.0, float64(scan), 1000, 42.0 * 5e-6})
	}
	s, ids := newTestStore(t, rows)
	ctx := &BinningContext{Store: s, MaxDist: 6, PPM: 5, EnableRebin: true}

	bins := Run(ctx, ids)
	for _, b := range bins {
		if len(b.DQSBBase) != len(b.IDs) {
			t.Fatalf("DQSBBase length %d != bin size %d", len(b.DQSBBase), len(b.IDs))
		}
		minMZ, maxMZ := b.MZRange(s)
		if !(b.LMaxdistAbs < minMZ && maxMZ < b.RMaxdistAbs) {
			t.Errorf("expected LMaxdistAbs < min <= max < RMaxdistAbs, got %v < %v <= %v < %v",
				b.LMaxdistAbs, minMZ, maxMZ, b.RMaxdistAbs)
		}
		for i := 1; i < len(b.IDs); i++ {
			if s.Get(b.IDs[i]).MZ < s.Get(b.IDs[i-1]).MZ {
				t.Errorf("bin not sorted by m/z")
			}
		}
	}
}
