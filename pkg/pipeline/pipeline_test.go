package pipeline

import (
	"testing"

	"github.com/odea-project/qalgo-go/pkg/ioformats/mzml"
)

func TestResolveOutputDir(t *testing.T) {
	cases := []struct {
		outputDir, inputPath, want string
	}{
		{"#", "/data/run1/sample.mzML", "/data/run1"},
		{"", "/data/run1/sample.mzML", "/data/run1"},
		{"/out", "/data/run1/sample.mzML", "/out"},
	}
	for _, c := range cases {
		if got := resolveOutputDir(c.outputDir, c.inputPath); got != c.want {
			t.Errorf("resolveOutputDir(%q,%q) = %q, want %q", c.outputDir, c.inputPath, got, c.want)
		}
	}
}

func TestFilterMS1(t *testing.T) {
	spectra := []*mzml.Spectrum{
		{Index: 0, MSLevel: 1},
		{Index: 1, MSLevel: 2},
		{Index: 2, MSLevel: 1},
	}
	got := filterMS1(spectra)
	if len(got) != 2 {
		t.Fatalf("expected 2 MS1 spectra, got %d", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 2 {
		t.Errorf("unexpected MS1 indices: %d, %d", got[0].Index, got[1].Index)
	}
}

func TestFanOutAssemblesByPositionAndCountsRejections(t *testing.T) {
	n := 50
	results, rejected := fanOut(n, func(i int) (int, bool) {
		if i%5 == 0 {
			return 0, false
		}
		return i * i, true
	})
	if len(results) != n {
		t.Fatalf("expected %d results, got %d", n, len(results))
	}
	for i, r := range results {
		if i%5 == 0 {
			continue
		}
		if r != i*i {
			t.Errorf("result[%d] = %d, want %d", i, r, i*i)
		}
	}
	wantRejected := (n + 4) / 5
	if rejected != wantRejected {
		t.Errorf("rejected = %d, want %d", rejected, wantRejected)
	}
}

func TestFanOutEmpty(t *testing.T) {
	results, rejected := fanOut(0, func(i int) (int, bool) { return i, true })
	if len(results) != 0 || rejected != 0 {
		t.Errorf("expected empty results and zero rejections, got %v, %d", results, rejected)
	}
}
