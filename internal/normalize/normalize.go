package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lockbox/internal/fileutil"
	"lockbox/internal/logging"
	"lockbox/internal/manifest"
)

// Filterer runs one ffmpeg filter pass. *ffmpeg.Client satisfies it.
type Filterer interface {
	Filter(ctx context.Context, input, output, chain string, sampleRate int) error
}

// Manifest tracks previously normalized files. *manifest.Store satisfies it.
type Manifest interface {
	Unchanged(ctx context.Context, outputPath, inputHash, paramsHash string) (bool, error)
	Record(ctx context.Context, e manifest.Entry) error
}

// Options configure a batch.
type Options struct {
	InputDir   string
	OutputDir  string
	Chain      string
	SampleRate int
	Jobs       int
}

// FileError records a file that failed to normalize.
type FileError struct {
	Name string
	Err  error
}

// Result summarizes a batch.
type Result struct {
	Processed []string
	Skipped   []string
	Failed    []FileError
	Elapsed   time.Duration
}

// Normalizer processes a directory of MP3 files.
type Normalizer struct {
	opts     Options
	filterer Filterer
	manifest Manifest
	logger   *slog.Logger
}

// New constructs a Normalizer. store may be nil to always reprocess.
func New(opts Options, filterer Filterer, store Manifest, logger *slog.Logger) *Normalizer {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Normalizer{
		opts:     opts,
		filterer: filterer,
		manifest: store,
		logger:   logging.NewComponentLogger(logger, "normalizer"),
	}
}

// Inputs lists the MP3 files in the input directory, sorted by name.
func (n *Normalizer) Inputs() ([]string, error) {
	entries, err := os.ReadDir(n.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Run normalizes every input. A failing file is logged and counted; it never
// stops the batch. The returned error covers setup failures and
// cancellation only.
func (n *Normalizer) Run(ctx context.Context) (*Result, error) {
	logger := logging.WithContext(ctx, n.logger)
	names, err := n.Inputs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(n.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	started := time.Now()
	result := &Result{}
	var mu sync.Mutex
	paramsHash := fileutil.HashString(n.opts.Chain + "|" + strconv.Itoa(n.opts.SampleRate))

	sampler := logging.NewProgressSampler(10)
	done := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(n.opts.Jobs)
	for _, name := range names {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			skipped, err := n.processFile(groupCtx, logger, name, paramsHash)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed = append(result.Failed, FileError{Name: name, Err: err})
				logging.WarnWithContext(logger, "failed to normalize file", "normalize_failed",
					logging.String("file", name),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file left out of the normalized set"),
				)
			case skipped:
				result.Skipped = append(result.Skipped, name)
			default:
				result.Processed = append(result.Processed, name)
			}
			done++
			if sampler.ShouldLog(done, len(names)) {
				logger.Info("normalize progress",
					logging.Int("done", done),
					logging.Int("total", len(names)),
					logging.Float64("percent", logging.Percent(done, len(names))),
				)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}

	sort.Strings(result.Processed)
	sort.Strings(result.Skipped)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Name < result.Failed[j].Name })
	result.Elapsed = time.Since(started)
	logger.Info("normalization complete",
		logging.Int("processed", len(result.Processed)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("failed", len(result.Failed)),
		logging.String("output_dir", n.opts.OutputDir),
	)
	return result, nil
}

func (n *Normalizer) processFile(ctx context.Context, logger *slog.Logger, name, paramsHash string) (bool, error) {
	input := filepath.Join(n.opts.InputDir, name)
	output := filepath.Join(n.opts.OutputDir, name)

	var inputHash string
	if n.manifest != nil {
		hash, err := fileutil.HashFile(input)
		if err != nil {
			return false, err
		}
		inputHash = hash
		unchanged, err := n.manifest.Unchanged(ctx, output, inputHash, paramsHash)
		if err != nil {
			logger.Debug("manifest lookup failed", logging.String("file", name), logging.Error(err))
		}
		if unchanged {
			if _, statErr := os.Stat(output); statErr == nil {
				logger.Debug("skipping unchanged file", logging.String("file", name))
				return true, nil
			}
		}
	}

	logger.Info("processing file", logging.String("file", name))
	if err := n.filterer.Filter(ctx, input, output, n.opts.Chain, n.opts.SampleRate); err != nil {
		return false, err
	}

	if n.manifest != nil {
		if err := n.manifest.Record(ctx, manifest.Entry{
			OutputPath: output,
			Kind:       manifest.KindNormalized,
			InputPath:  input,
			InputHash:  inputHash,
			ParamsHash: paramsHash,
		}); err != nil {
			logging.WarnWithContext(logger, "manifest update failed", "manifest_write_failed",
				logging.String("file", name),
				logging.Error(err),
			)
		}
	}
	return false, nil
}
