// Package centroidcsv implements the CSV external interfaces named in
// spec section 6: a tuple reader used for binning-only test runs, and
// the writers for the final peak table, the bin-summary file, and the
// raw bins dump. No corpus library covers ad hoc CSV shapes, so this
// is the one ambient concern built directly on encoding/csv; see
// DESIGN.md.
package centroidcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/odea-project/qalgo-go/pkg/feature"
	"github.com/odea-project/qalgo-go/pkg/qbin"
)

// Tuple is one row of a binning-only input file: (mz, mz_error, scan,
// intensity, dqs_cen).
type Tuple struct {
	MZ        float64
	MZError   float64
	Scan      int
	Intensity float64
	DQSCen    float64
}

// ReadTuples parses a headerless or headered CSV of centroid tuples.
// A header row is detected (and skipped) when its first field fails to
// parse as a float.
func ReadTuples(path string) ([]Tuple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("centroidcsv: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	r.TrimLeadingSpace = true

	var tuples []Tuple
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("centroidcsv: parse %s: %w", path, err)
		}
		if first {
			first = false
			if _, perr := strconv.ParseFloat(rec[0], 64); perr != nil {
				continue // header row
			}
		}
		t, err := parseTuple(rec)
		if err != nil {
			return nil, fmt.Errorf("centroidcsv: %s: %w", path, err)
		}
		tuples = append(tuples, t)
	}
	return tuples, nil
}

func parseTuple(rec []string) (Tuple, error) {
	mz, err := strconv.ParseFloat(rec[0], 64)
	if err != nil {
		return Tuple{}, fmt.Errorf("mz: %w", err)
	}
	mzErr, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return Tuple{}, fmt.Errorf("mz_error: %w", err)
	}
	scan, err := strconv.Atoi(rec[2])
	if err != nil {
		return Tuple{}, fmt.Errorf("scan: %w", err)
	}
	intensity, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return Tuple{}, fmt.Errorf("intensity: %w", err)
	}
	dqsCen, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return Tuple{}, fmt.Errorf("dqs_cen: %w", err)
	}
	return Tuple{MZ: mz, MZError: mzErr, Scan: scan, Intensity: intensity, DQSCen: dqsCen}, nil
}

// LoadIntoStore appends every tuple as a centroid in s and returns
// their arena ids.
func LoadIntoStore(s *qbin.Store, tuples []Tuple) []int {
	ids := make([]int, 0, len(tuples))
	for _, t := range tuples {
		ids = append(ids, s.Add(qbin.Centroid{
			MZ:        t.MZ,
			MZError:   t.MZError,
			Scan:      t.Scan,
			Intensity: t.Intensity,
			DQSCen:    t.DQSCen,
		}))
	}
	return ids
}

var peakHeader = []string{"mz", "rt", "int", "mzUncertainty", "rtUncertainty", "intUncertainty", "dqs_cen", "dqs_bin", "dqs_peak"}

// WritePeaks writes the final feature-peak table (spec section 6).
func WritePeaks(path string, peaks []feature.Peak) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("centroidcsv: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(peakHeader); err != nil {
		return err
	}
	for _, p := range peaks {
		row := []string{
			formatFloat(p.MZ), formatFloat(p.RT), formatFloat(p.Area),
			formatFloat(p.UMZ), formatFloat(p.URT), formatFloat(p.UArea),
			formatFloat(p.DQSCen), formatFloat(p.DQSBin), formatFloat(p.DQSPeak),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

var summaryHeader = []string{"ID", "errorcode", "size", "mean_mz", "median_mz", "stdev_mz", "mean_scans", "DQSB_base", "DQSB_scaled", "DQSC_min", "mean_error"}

// WriteBinSummary writes the `-pb` bin-summary file (spec section 6).
func WriteBinSummary(path string, rows []qbin.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("centroidcsv: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(summaryHeader); err != nil {
		return err
	}
	for _, s := range rows {
		row := []string{
			strconv.Itoa(s.ID), strconv.Itoa(s.ErrorCode), strconv.Itoa(s.Size),
			formatFloat(s.MeanMZ), formatFloat(s.MedianMZ), formatFloat(s.StdevMZ),
			formatFloat(s.MeanScans), formatFloat(s.DQSBBase), formatFloat(s.DQSBScaled),
			formatFloat(s.DQSCenMin), formatFloat(s.MeanError),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

var binsHeader = []string{"bin_id", "mz", "mz_error", "scan", "intensity", "dqs_cen", "dqsb_base", "dqsb_scaled"}

// WriteBins writes the `-pb` raw bins dump: every binned centroid,
// tagged with its closed-bin row id.
func WriteBins(path string, s *qbin.Store, bins []*qbin.Bin) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("centroidcsv: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(binsHeader); err != nil {
		return err
	}
	for binID, b := range bins {
		for i, cid := range b.IDs {
			c := s.Get(cid)
			row := []string{
				strconv.Itoa(binID), formatFloat(c.MZ), formatFloat(c.MZError),
				strconv.Itoa(c.Scan), formatFloat(c.Intensity), formatFloat(c.DQSCen),
				formatFloat(b.DQSBBase[i]), formatFloat(b.DQSBScaled[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
