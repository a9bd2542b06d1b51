package centroidcsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odea-project/qalgo-go/pkg/feature"
	"github.com/odea-project/qalgo-go/pkg/qbin"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tuples.csv")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write temp CSV: %v", err)
	}
	return path
}

func TestReadTuplesHeaderless(t *testing.T) {
	path := writeTempCSV(t, "100.5,0.001,1,1000,0.9\n100.6,0.002,2,1100,0.8\n")
	tuples, err := ReadTuples(path)
	if err != nil {
		t.Fatalf("ReadTuples returned error: %v", err)
	}
	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples, got %d", len(tuples))
	}
	if tuples[0].MZ != 100.5 || tuples[0].Scan != 1 || tuples[0].Intensity != 1000 {
		t.Errorf("unexpected first tuple: %+v", tuples[0])
	}
}

func TestReadTuplesWithHeader(t *testing.T) {
	path := writeTempCSV(t, "mz,mz_error,scan,intensity,dqs_cen\n100.5,0.001,1,1000,0.9\n")
	tuples, err := ReadTuples(path)
	if err != nil {
		t.Fatalf("ReadTuples returned error: %v", err)
	}
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple (header skipped), got %d", len(tuples))
	}
}

func TestLoadIntoStore(t *testing.T) {
	tuples := []Tuple{
		{MZ: 100, MZError: 0.001, Scan: 1, Intensity: 500, DQSCen: 0.7},
		{MZ: 101, MZError: 0.002, Scan: 2, Intensity: 600, DQSCen: 0.8},
	}
	s := qbin.NewStore()
	ids := LoadIntoStore(s, tuples)
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	c := s.Get(ids[0])
	if c.MZ != 100 || c.Scan != 1 {
		t.Errorf("unexpected stored centroid: %+v", c)
	}
}

func TestWritePeaksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peaks.csv")
	peaks := []feature.Peak{
		{MZ: 200.1, RT: 12.5, Area: 5000, UMZ: 0.01, URT: 0.1, UArea: 50, DQSCen: 0.9, DQSBin: 0.8, DQSPeak: 0.95},
	}
	if err := WritePeaks(path, peaks); err != nil {
		t.Fatalf("WritePeaks returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back written file: %v", err)
	}
	content := string(data)
	if content == "" {
		t.Fatal("expected non-empty output file")
	}
}

func TestWriteBinSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.csv")
	rows := []qbin.Summary{
		{ID: 0, ErrorCode: 0, Size: 10, MeanMZ: 200.123, MedianMZ: 200.124, StdevMZ: 0.001, MeanScans: 5.5, DQSBBase: 0.8, DQSBScaled: 0.75, DQSCenMin: 0.6, MeanError: 0.0005},
	}
	if err := WriteBinSummary(path, rows); err != nil {
		t.Fatalf("WriteBinSummary returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty summary file, stat err=%v", err)
	}
}

func TestWriteBins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bins.csv")
	s := qbin.NewStore()
	id1 := s.Add(qbin.Centroid{MZ: 100, MZError: 0.001, Scan: 1, Intensity: 500, DQSCen: 0.7})
	id2 := s.Add(qbin.Centroid{MZ: 100.001, MZError: 0.001, Scan: 2, Intensity: 520, DQSCen: 0.75})
	bins := []*qbin.Bin{
		{IDs: []int{id1, id2}, DQSBBase: []float64{0.8, 0.81}, DQSBScaled: []float64{0.7, 0.71}},
	}
	if err := WriteBins(path, s, bins); err != nil {
		t.Fatalf("WriteBins returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty bins file, stat err=%v", err)
	}
}
