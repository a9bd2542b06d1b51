package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/feature"
	"github.com/odea-project/qalgo-go/pkg/ioformats/centroidcsv"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/qbin"
)

// RunBinOnly implements the `-binonly CSVPATH` supplemented feature
// (ported from the original's `readcsv` test mode): load a tuple CSV
// straight into the qbin arena, run qBinning and then qPeak extraction
// standalone. Since a tuple CSV carries no
// scan-to-retention-time mapping, scan number doubles as the RT axis.
func RunBinOnly(csvPath string, cfg *config.Config, log *logging.Logger, metrics *telemetry.Metrics) (Summary, ExitCode, error) {
	if !strings.EqualFold(filepath.Ext(csvPath), ".csv") {
		return Summary{}, BadPath, fmt.Errorf("pipeline: %s does not have a .csv extension", csvPath)
	}

	tuples, err := centroidcsv.ReadTuples(csvPath)
	if err != nil {
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: %w", err)
	}
	if len(tuples) == 0 {
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: %s contains no tuples", csvPath)
	}

	store := qbin.NewStore()
	ids := centroidcsv.LoadIntoStore(store, tuples)
	rtByScan := make(map[int]float64)
	for _, t := range tuples {
		rtByScan[t.Scan] = float64(t.Scan)
	}

	ctx := &qbin.BinningContext{
		Store:       store,
		MaxDist:     cfg.Binning.MaxDist,
		PPM:         cfg.Binning.PPM,
		EnableRebin: cfg.Binning.EnableRebin,
	}
	bins := qbin.Run(ctx, ids)
	metrics.BinsClosed.Add(float64(len(bins)))
	metrics.DuplicateScan.Add(float64(ctx.DuplicatesTotal))
	log.Info("binning-only run complete", map[string]interface{}{"bins": len(bins), "out_of_bins": len(ctx.OutOfBins)})

	eics := make([]*qbin.EIC, len(bins))
	for i, b := range bins {
		eics[i] = b.ToEIC(store, rtByScan)
	}

	featurePeaks, _ := fanOut(len(eics), func(i int) ([]feature.Peak, bool) {
		peaks, err := feature.Extract(eics[i], cfg.Regression.MinScale, cfg.Regression.MaxScale)
		if err != nil {
			return nil, false
		}
		return peaks, true
	})
	var allPeaks []feature.Peak
	for _, p := range featurePeaks {
		allPeaks = append(allPeaks, p...)
	}

	outDir := resolveOutputDir(cfg.IO.OutputDir, csvPath)
	base := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	outputPath := filepath.Join(outDir, base+"_features.csv")
	if err := centroidcsv.WritePeaks(outputPath, allPeaks); err != nil {
		return Summary{}, ReadFailure, fmt.Errorf("pipeline: writing output: %w", err)
	}

	summary := Summary{
		BinsClosed:      len(bins),
		DuplicatesTotal: ctx.DuplicatesTotal,
		FeaturesEmitted: len(allPeaks),
		OutputPath:      outputPath,
	}

	if cfg.IO.PrintBins {
		summaryRows := make([]qbin.Summary, len(bins))
		for i, b := range bins {
			summaryRows[i] = b.Summarize(store, ctx, i)
		}
		summaryPath := filepath.Join(outDir, base+"_summary.csv")
		binsPath := filepath.Join(outDir, base+"_bins.csv")
		if err := centroidcsv.WriteBinSummary(summaryPath, summaryRows); err == nil {
			summary.SummaryPath = summaryPath
		}
		if err := centroidcsv.WriteBins(binsPath, store, bins); err == nil {
			summary.BinsPath = binsPath
		}
	}

	return summary, Success, nil
}
