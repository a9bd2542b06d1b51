package regress

import "testing"

func reg(apex float64, scale, left, right int, mse float64) *ValidRegression {
	return &ValidRegression{
		ApexPosition: apex,
		Scale:        scale,
		Index0:       (left + right) / 2,
		LeftLimit:    left,
		RightLimit:   right,
		DF:           right - left + 1 - 4,
		MSE:          mse,
		Valid:        true,
	}
}

func flatY(n int, value float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = value
	}
	return y
}

func TestMergeWithinScaleKeepsIsolatedCandidates(t *testing.T) {
	a := reg(10, 5, 5, 15, 0)
	b := reg(40, 5, 35, 45, 0)
	y := flatY(60, 1)

	survivors := MergeWithinScale([]*ValidRegression{a, b}, y)
	if len(survivors) != 2 {
		t.Fatalf("got %d survivors, want 2", len(survivors))
	}
	if !a.Valid || !b.Valid {
		t.Fatal("isolated candidates should remain valid")
	}
}

func TestMergeWithinScaleCollapsesOverlappingGroup(t *testing.T) {
	a := reg(10, 5, 5, 15, 0)
	b := reg(12, 5, 7, 17, 0)
	y := flatY(30, 1)

	survivors := MergeWithinScale([]*ValidRegression{a, b}, y)
	if len(survivors) != 1 {
		t.Fatalf("got %d survivors, want 1 (overlapping group collapses)", len(survivors))
	}
	if a.Valid && b.Valid {
		t.Fatal("exactly one of the overlapping pair must be invalidated")
	}
}

func TestSameGroupRespectsApexDistanceCutoff(t *testing.T) {
	a := reg(0, 5, -5, 5, 0)
	b := reg(10, 5, 5, 15, 0)
	if sameGroup(a, b) {
		t.Fatal("apex distance of 10 exceeds the cutoff of 4 and should not group")
	}
}

func TestMergeAcrossScalesKeepsNonOverlapping(t *testing.T) {
	y := flatY(100, 1)
	byScale := map[int][]*ValidRegression{
		4: {reg(10, 4, 6, 14, 0)},
		8: {reg(60, 8, 52, 68, 0)},
	}
	kept := MergeAcrossScales(byScale, y)
	if len(kept) != 2 {
		t.Fatalf("got %d kept, want 2", len(kept))
	}
}

func TestMergeAcrossScalesPairwiseCompetition(t *testing.T) {
	y := flatY(60, 1)
	// two overlapping candidates at different scales, covering the same
	// flat signal; the lower mse on the union window should survive.
	low := reg(20, 4, 16, 24, 0)
	high := reg(21, 8, 13, 29, 0)
	byScale := map[int][]*ValidRegression{
		4: {low},
		8: {high},
	}
	kept := MergeAcrossScales(byScale, y)
	if len(kept) != 1 {
		t.Fatalf("got %d kept, want 1 (overlapping candidates must compete)", len(kept))
	}
}
