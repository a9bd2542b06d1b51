// Package qbin implements qBinning: grouping of centroids across scans
// into extracted-ion chromatograms by a mass-error-aware recursive
// split on m/z followed by a gap test on scan number, plus the
// DQSB/DQSB-scaled data-quality score and the hot-end rebinning pass
// (spec section 4.4).
//
// Per section 9's re-modeling guidance, every centroid the run ever
// produces lives in one append-only Store, indexed by a flat integer
// id; Bin and EIC hold only []int index slices into that Store. This
// removes the aliasing and destructor-ordering concerns the original
// pointer-based "Bin holds raw pointers into CentroidedData" design
// carried, and breaks the Bin<->CentroidedData ownership cycle by
// making Store the sole owner.
package qbin

import "sync"

// Centroid is a centroid as consumed by binning: the qCentroid entity
// of the data model (spec section 3).
type Centroid struct {
	MZ        float64
	MZError   float64 // per-point absolute m/z error; <=0 means "use context PPM instead"
	Scan      int
	Intensity float64
	DQSCen    float64
}

// Store is the append-only arena that owns every centroid produced by
// the centroiding stage. It is built under a mutex while the
// concurrent per-spectrum centroiding fan-out (pkg/pipeline) is still
// running; once binning starts, it is read-only and the binning phase
// itself is single-threaded, per section 5.
type Store struct {
	mu        sync.Mutex
	centroids []Centroid
}

// NewStore returns an empty arena.
func NewStore() *Store {
	return &Store{}
}

// Add appends one centroid and returns its arena id.
func (s *Store) Add(c Centroid) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := len(s.centroids)
	s.centroids = append(s.centroids, c)
	return id
}

// AddAll appends a batch of centroids (typically one scan's worth) and
// returns their arena ids in the same order.
func (s *Store) AddAll(cs []Centroid) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(cs))
	for i, c := range cs {
		ids[i] = len(s.centroids)
		s.centroids = append(s.centroids, c)
	}
	return ids
}

// Get returns the centroid stored at id.
func (s *Store) Get(id int) Centroid {
	return s.centroids[id]
}

// Len returns the total number of centroids in the arena (spec's
// CentroidedData.total_points).
func (s *Store) Len() int {
	return len(s.centroids)
}

// AllIDs returns every id currently in the arena, in insertion order.
func (s *Store) AllIDs() []int {
	ids := make([]int, len(s.centroids))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Error returns the per-point absolute m/z error to use for id, falling
// back to ppm*mz*1e-6 when the point carries no strictly-positive
// per-point error.
func (s *Store) Error(id int, ppm float64) float64 {
	c := s.centroids[id]
	if c.MZError > 0 {
		return c.MZError
	}
	return ppm * c.MZ * 1e-6
}
