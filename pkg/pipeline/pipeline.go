// Package pipeline orchestrates the full conversion from one mzML
// file to a feature-peak table: worker-pool fan-out across spectra for
// centroiding, the single-threaded qBinning phase, worker-pool fan-out
// across EICs for feature extraction, and CSV output (spec sections 5
// and 6).
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/centroid"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/feature"
	"github.com/odea-project/qalgo-go/pkg/ioformats/centroidcsv"
	"github.com/odea-project/qalgo-go/pkg/ioformats/mzml"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/qbin"
	"github.com/odea-project/qalgo-go/pkg/spectrum"
)

// Summary is the end-of-run report, surfaced both to the CLI's final
// print and to pkg/registry.Result.
type Summary struct {
	SpectraProcessed int
	CentroidsEmitted int
	SoftRejections   int
	BinsClosed       int
	BinsRebinned     int
	DuplicatesTotal  int
	FeaturesEmitted  int
	OutputPath       string
	SummaryPath      string
	BinsPath         string
}

// Run converts a single mzML file into a feature-peak table under
// cfg.IO.OutputDir (or alongside the input when OutputDir is "#" or
// empty), per the CLI surface of spec section 6.
func Run(cfg *config.Config, log *logging.Logger, metrics *telemetry.Metrics) (Summary, ExitCode, error) {
	metrics.RunsActive.Inc()
	start := time.Now()
	defer func() {
		metrics.RunsActive.Dec()
	}()

	path := cfg.IO.InputPath
	if !strings.EqualFold(filepath.Ext(path), ".mzml") {
		metrics.RecordRun("bad_path", time.Since(start))
		return Summary{}, BadPath, fmt.Errorf("pipeline: %s does not have a .mzML extension", path)
	}

	spectra, err := mzml.ReadAll(path)
	if err != nil {
		metrics.RecordRun("read_failure", time.Since(start))
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: reading %s: %w", path, err)
	}
	if len(spectra) == 0 {
		metrics.RecordRun("read_failure", time.Since(start))
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: %s contains no spectra", path)
	}

	ms1 := filterMS1(spectra)
	if len(ms1) == 0 {
		metrics.RecordRun("read_failure", time.Since(start))
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: %s contains no MS1 spectra", path)
	}

	grid, err := spectrum.EstimateGrid(ms1[0].MZ)
	if err != nil {
		metrics.RecordRun("read_failure", time.Since(start))
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: grid pre-pass: %w", err)
	}

	store := qbin.NewStore()
	rtByScan := make(map[int]float64, len(ms1))

	type centroidResult struct {
		ids   []int
		count int
	}
	results, rejected := fanOut(len(ms1), func(i int) (centroidResult, bool) {
		s := ms1[i]
		treated, err := spectrum.Prepare(s.MZ, s.Intensity, grid)
		if err != nil {
			log.Warn("spectrum preparation failed", map[string]interface{}{"index": s.Index, "error": err.Error()})
			return centroidResult{}, false
		}

		t0 := time.Now()
		peaks, err := centroid.Centroid(treated, cfg.Regression.MinScale, cfg.Regression.MaxScale)
		metrics.RegressionTime.Observe(time.Since(t0).Seconds())
		if err != nil {
			log.Warn("centroiding failed", map[string]interface{}{"index": s.Index, "error": err.Error()})
			return centroidResult{}, false
		}

		raw := make([]qbin.Centroid, len(peaks))
		for j, p := range peaks {
			raw[j] = qbin.Centroid{MZ: p.MZ, MZError: p.UMZ, Scan: s.Index, Intensity: p.Area, DQSCen: p.DQS}
		}
		ids := store.AddAll(raw)
		return centroidResult{ids: ids, count: len(ids)}, true
	})

	var allIDs []int
	centroidsEmitted := 0
	for i, r := range results {
		allIDs = append(allIDs, r.ids...)
		centroidsEmitted += r.count
		rtByScan[ms1[i].Index] = ms1[i].RT
	}
	metrics.SpectraProcessed.Add(float64(len(ms1)))
	metrics.CentroidsEmitted.Add(float64(centroidsEmitted))
	log.Info("centroiding complete", map[string]interface{}{
		"spectra": len(ms1), "centroids": centroidsEmitted, "soft_rejected_spectra": rejected,
	})

	ctx := &qbin.BinningContext{
		Store:       store,
		MaxDist:     cfg.Binning.MaxDist,
		PPM:         cfg.Binning.PPM,
		EnableRebin: cfg.Binning.EnableRebin,
	}
	bins := qbin.Run(ctx, allIDs)
	metrics.BinsClosed.Add(float64(len(bins)))
	metrics.DuplicateScan.Add(float64(ctx.DuplicatesTotal))
	log.Info("binning complete", map[string]interface{}{"bins": len(bins), "out_of_bins": len(ctx.OutOfBins)})

	eics := make([]*qbin.EIC, len(bins))
	for i, b := range bins {
		eics[i] = b.ToEIC(store, rtByScan)
	}

	featurePeaks, _ := fanOut(len(eics), func(i int) ([]feature.Peak, bool) {
		t0 := time.Now()
		peaks, err := feature.Extract(eics[i], cfg.Regression.MinScale, cfg.Regression.MaxScale)
		metrics.RegressionTime.Observe(time.Since(t0).Seconds())
		if err != nil {
			log.Warn("feature extraction failed", map[string]interface{}{"eic": i, "error": err.Error()})
			return nil, false
		}
		return peaks, true
	})

	var allPeaks []feature.Peak
	for _, p := range featurePeaks {
		allPeaks = append(allPeaks, p...)
	}
	metrics.FeaturesEmitted.Add(float64(len(allPeaks)))

	outDir := resolveOutputDir(cfg.IO.OutputDir, path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outputPath := filepath.Join(outDir, base+".csv")

	if err := centroidcsv.WritePeaks(outputPath, allPeaks); err != nil {
		metrics.RecordRun("write_failure", time.Since(start))
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: writing output: %w", err)
	}
	metrics.PeaksWritten.Add(float64(len(allPeaks)))

	summary := Summary{
		SpectraProcessed: len(ms1),
		CentroidsEmitted: centroidsEmitted,
		SoftRejections:   rejected,
		BinsClosed:       len(bins),
		DuplicatesTotal:  ctx.DuplicatesTotal,
		FeaturesEmitted:  len(allPeaks),
		OutputPath:       outputPath,
	}

	if cfg.IO.PrintBins {
		summaryRows := make([]qbin.Summary, len(bins))
		for i, b := range bins {
			summaryRows[i] = b.Summarize(store, ctx, i)
		}
		summaryPath := filepath.Join(outDir, base+"_summary.csv")
		binsPath := filepath.Join(outDir, base+"_bins.csv")

		if err := centroidcsv.WriteBinSummary(summaryPath, summaryRows); err != nil {
			log.Warn("bin-summary write failed, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			summary.SummaryPath = summaryPath
		}
		if err := centroidcsv.WriteBins(binsPath, store, bins); err != nil {
			log.Warn("bins dump write failed, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			summary.BinsPath = binsPath
		}
	}

	metrics.RecordRun("success", time.Since(start))
	return summary, Success, nil
}

func filterMS1(spectra []*mzml.Spectrum) []*mzml.Spectrum {
	out := make([]*mzml.Spectrum, 0, len(spectra))
	for _, s := range spectra {
		if s.MSLevel == 1 {
			out = append(out, s)
		}
	}
	return out
}

// resolveOutputDir implements the "#" means alongside input rule of
// spec section 6.
func resolveOutputDir(outputDir, inputPath string) string {
	if outputDir == "" || outputDir == "#" {
		return filepath.Dir(inputPath)
	}
	return outputDir
}
