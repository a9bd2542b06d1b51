package qbin

import "sort"

// Bin is a closed partition of the centroid arena: an ordered sequence
// of arena ids plus the flags and per-point quality scores derived
// once the bin is closed (spec section 3).
type Bin struct {
	// IDs are arena indices, kept sorted by m/z (the invariant
	// section 3 requires for DQSB computation).
	IDs []int

	DQSBBase   []float64 // parallel to IDs
	DQSBScaled []float64 // parallel to IDs

	LMaxdistTooClose bool
	RMaxdistTooClose bool
	DuplicateScan    bool

	MedianMZ    float64
	LMaxdistAbs float64
	RMaxdistAbs float64
}

// sortByMZ reorders IDs ascending by m/z, as every DQSB-facing
// invariant requires.
func (b *Bin) sortByMZ(s *Store) {
	sort.Slice(b.IDs, func(i, j int) bool { return s.Get(b.IDs[i]).MZ < s.Get(b.IDs[j]).MZ })
}

// sortByScan reorders IDs ascending by scan number, with m/z as a
// tiebreaker so that the scan-split walk is deterministic.
func (b *Bin) sortByScan(s *Store) {
	sort.Slice(b.IDs, func(i, j int) bool {
		ci, cj := s.Get(b.IDs[i]), s.Get(b.IDs[j])
		if ci.Scan != cj.Scan {
			return ci.Scan < cj.Scan
		}
		return ci.MZ < cj.MZ
	})
}

// MZRange returns the bin's [min, max] m/z, assuming IDs is already
// m/z-sorted.
func (b *Bin) MZRange(s *Store) (float64, float64) {
	return s.Get(b.IDs[0]).MZ, s.Get(b.IDs[len(b.IDs)-1]).MZ
}

// ScanRange returns the bin's [min, max] scan number.
func (b *Bin) ScanRange(s *Store) (int, int) {
	lo, hi := s.Get(b.IDs[0]).Scan, s.Get(b.IDs[0]).Scan
	for _, id := range b.IDs[1:] {
		sc := s.Get(id).Scan
		if sc < lo {
			lo = sc
		}
		if sc > hi {
			hi = sc
		}
	}
	return lo, hi
}

// EIC is a closed bin viewed along the retention-time axis, ready for
// the qPeak extraction pass (pkg/feature). It is produced from a Bin
// once the caller supplies the scan->retention-time mapping the
// binning phase itself has no need of.
type EIC struct {
	RT       []float64
	Int      []float64
	MZ       []float64
	DF       []bool
	DQSCen   []float64
	DQSBin   []float64
	MeanMZ   float64
	MeanDQSB float64
}

// ToEIC converts a closed, DQSB-scored bin into RT-axis order. df is
// always true for a qbin.Centroid (binning never fabricates points);
// points with equal RT retain their bin order.
func (b *Bin) ToEIC(s *Store, rtByScan map[int]float64) *EIC {
	type row struct {
		rt, intensity, mz, dqsCen, dqsBin float64
	}
	rows := make([]row, len(b.IDs))
	for i, id := range b.IDs {
		c := s.Get(id)
		rows[i] = row{rt: rtByScan[c.Scan], intensity: c.Intensity, mz: c.MZ, dqsCen: c.DQSCen, dqsBin: b.DQSBBase[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].rt < rows[j].rt })

	e := &EIC{
		RT:     make([]float64, len(rows)),
		Int:    make([]float64, len(rows)),
		MZ:     make([]float64, len(rows)),
		DF:     make([]bool, len(rows)),
		DQSCen: make([]float64, len(rows)),
		DQSBin: make([]float64, len(rows)),
	}
	var sumMZ, sumDQSB float64
	for i, r := range rows {
		e.RT[i], e.Int[i], e.MZ[i] = r.rt, r.intensity, r.mz
		e.DF[i] = true
		e.DQSCen[i], e.DQSBin[i] = r.dqsCen, r.dqsBin
		sumMZ += r.mz
		sumDQSB += r.dqsBin
	}
	if len(rows) > 0 {
		e.MeanMZ = sumMZ / float64(len(rows))
		e.MeanDQSB = sumDQSB / float64(len(rows))
	}
	return e
}
