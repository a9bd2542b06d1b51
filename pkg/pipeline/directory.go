package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/logging"
)

// RunDirectory implements the `-r`/`-recursive` supplemented feature:
// walk dir for every *.mzML file and run the pipeline on each in turn.
// A file whose run returns an error is logged and skipped, and a file
// whose run ends with a non-success exit code is skipped; only a failed
// walk or a directory with no .mzML files ends the whole run.
func RunDirectory(dir string, cfg *config.Config, log *logging.Logger, metrics *telemetry.Metrics) ([]Summary, ExitCode, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".mzml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, BadPath, fmt.Errorf("pipeline: walking %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, BadPath, fmt.Errorf("pipeline: no .mzML files found under %s", dir)
	}

	var summaries []Summary
	for _, path := range files {
		fileCfg := *cfg
		fileCfg.IO.InputPath = path

		summary, code, err := Run(&fileCfg, log, metrics)
		if err != nil {
			log.Error("file failed, continuing with the next", map[string]interface{}{"path": path, "error": err.Error()})
			continue
		}
		if code != Success {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, Success, nil
}
