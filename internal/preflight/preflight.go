package preflight

import (
	"errors"
	"fmt"
	"path/filepath"

	"lockbox/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the path checks for an assembler run.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckFileReadable("Narration audio", cfg.Paths.SourceAudio),
		CheckFileReadable("Transcript", cfg.Paths.Transcript),
		CheckOutputDirectory("Track output directory", cfg.Paths.OutputDir),
		CheckOutputDirectory("Sequence directory", filepath.Dir(cfg.Paths.SequenceOutput)),
	}
}

// Err joins the failed results into one error, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
