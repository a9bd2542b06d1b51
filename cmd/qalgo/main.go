// Command qalgo is the non-target LC-MS peak-detection pipeline CLI:
// qCentroiding, qBinning and qPeak extraction over one or more mzML
// files (spec section 6).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/pipeline"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("qalgo", flag.ContinueOnError)
	var (
		filePath    = fs.String("f", "", "input mzML file")
		fileLong    = fs.String("file", "", "input mzML file")
		recurDir    = fs.String("r", "", "recursively process every .mzML under DIR")
		recurLong   = fs.String("recursive", "", "recursively process every .mzML under DIR")
		outputDir   = fs.String("o", "", "output directory ('#' = alongside input)")
		outputLong  = fs.String("output", "", "output directory ('#' = alongside input)")
		silent      = fs.Bool("s", false, "suppress progress output")
		silentLong  = fs.Bool("silent", false, "suppress progress output")
		printBins   = fs.Bool("pb", false, "also emit _summary.csv and _bins.csv")
		printLong   = fs.Bool("printbins", false, "also emit _summary.csv and _bins.csv")
		logFile     = fs.Bool("log", false, "write a detailed log file")
		binOnly     = fs.String("binonly", "", "run qBinning standalone against a centroid tuple CSV")
		showVersion = fs.Bool("version", false, "print the version and exit")
	)
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		return 100
	}

	if *showVersion {
		fmt.Printf("qalgo version %s\n", version)
		return 0
	}

	if len(args) == 0 {
		return interactive()
	}

	file := firstNonEmpty(*filePath, *fileLong)
	recur := firstNonEmpty(*recurDir, *recurLong)
	out := firstNonEmpty(*outputDir, *outputLong, "#")
	isSilent := *silent || *silentLong
	isPrintBins := *printBins || *printLong

	if file != "" && recur != "" {
		fmt.Fprintln(os.Stderr, "error: -f/-file and -r/-recursive are mutually exclusive")
		return 100
	}
	if file == "" && recur == "" && *binOnly == "" {
		fs.Usage()
		return 101
	}

	cfg := config.Default()
	cfg.IO.OutputDir = out
	cfg.IO.Silent = isSilent
	cfg.IO.PrintBins = isPrintBins

	log := logging.NewDefault()
	if *logFile {
		if w, f, err := logging.MultiOutput("qalgo.log"); err == nil {
			defer f.Close()
			log = logging.New(logging.INFO, w)
		}
	}
	if isSilent {
		log.SetLevel(logging.ERROR)
	}
	logging.SetGlobal(log)
	metrics := telemetry.New()

	switch {
	case *binOnly != "":
		summary, code, err := pipeline.RunBinOnly(*binOnly, cfg, log, metrics)
		return report([]pipeline.Summary{summary}, code, err, isSilent)
	case recur != "":
		summaries, code, err := pipeline.RunDirectory(recur, cfg, log, metrics)
		return report(summaries, code, err, isSilent)
	default:
		cfg.IO.InputPath = file
		summary, code, err := pipeline.Run(cfg, log, metrics)
		return report([]pipeline.Summary{summary}, code, err, isSilent)
	}
}

func report(summaries []pipeline.Summary, code pipeline.ExitCode, err error, silent bool) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return int(code)
	}
	if !silent {
		for _, s := range summaries {
			fmt.Printf("wrote %s (%d spectra, %d centroids, %d bins, %d duplicate scans, %d features)\n",
				s.OutputPath, s.SpectraProcessed, s.CentroidsEmitted, s.BinsClosed, s.DuplicatesTotal, s.FeaturesEmitted)
		}
	}
	return int(code)
}

// interactive implements the original's argc==1 fallback: prompt on
// stdin for a filename and an output directory.
func interactive() int {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("mzML file path: ")
	if !scanner.Scan() {
		return 101
	}
	file := scanner.Text()
	if file == "" {
		fmt.Fprintln(os.Stderr, "error: no file given")
		return 101
	}

	fmt.Print("output directory ('#' for alongside input): ")
	out := "#"
	if scanner.Scan() {
		if v := scanner.Text(); v != "" {
			out = v
		}
	}

	cfg := config.Default()
	cfg.IO.InputPath = file
	cfg.IO.OutputDir = out

	log := logging.NewDefault()
	logging.SetGlobal(log)
	metrics := telemetry.New()

	summary, code, err := pipeline.Run(cfg, log, metrics)
	return report([]pipeline.Summary{summary}, code, err, false)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func printUsage(fs *flag.FlagSet) {
	fmt.Println(`qalgo - non-target LC-MS peak-detection pipeline

Usage:
  qalgo -f FILE.mzML [-o DIR] [-s] [-pb] [-log]
  qalgo -r DIR [-o DIR] [-s] [-pb] [-log]
  qalgo -binonly TUPLES.csv [-o DIR] [-pb]

Flags:
  -f, -file PATH       input mzML file
  -r, -recursive DIR   recursively process every .mzML under DIR
  -o, -output DIR      output directory ('#' = alongside input, default)
  -s, -silent          suppress progress output
  -pb, -printbins      also emit _summary.csv and _bins.csv
  -log                 write a detailed log file
  -binonly CSVPATH     run qBinning standalone against a centroid tuple CSV
  -version             print the version and exit
  -h, -help            show this help message

Exit codes: 0 success, 1 generic read failure, 100 incompatible flags,
101 bad path/extension, 201 unknown subset method.`)
}
