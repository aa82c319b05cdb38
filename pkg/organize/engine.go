package organize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/filenorris/pkg/classify"
	"github.com/sdejongh/filenorris/pkg/execute"
	"github.com/sdejongh/filenorris/pkg/logging"
	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/output"
	"github.com/sdejongh/filenorris/pkg/plan"
	"github.com/sdejongh/filenorris/pkg/preview"
	"github.com/sdejongh/filenorris/pkg/scan"
	"github.com/sdejongh/filenorris/pkg/storage"
)

// Result is the outcome of one run. Exactly one of Preview and Report is
// set: Preview for dry runs, Report otherwise.
type Result struct {
	Plan     *models.Plan
	Preview  *preview.Preview
	Report   *models.RunReport
	Warnings []string
}

// Engine orchestrates one run: scan, classify, plan, then preview or execute
type Engine struct {
	config     models.RunConfig
	classifier classify.Classifier
	backend    storage.Backend
	formatter  output.Formatter
	logger     logging.Logger
}

// NewEngine creates a new run engine. classifier is only used in content
// and test modes; test mode falls back to the simulated classifier when it
// is nil.
func NewEngine(
	config models.RunConfig,
	classifier classify.Classifier,
	backend storage.Backend,
	formatter output.Formatter,
	logger logging.Logger,
) *Engine {
	if formatter == nil {
		formatter = output.NullFormatter{}
	}
	if classifier == nil && config.Mode == models.ModeTest {
		classifier = classify.NewSimulatedDispatcher()
	}
	return &Engine{
		config:     config,
		classifier: classifier,
		backend:    backend,
		formatter:  formatter,
		logger:     logging.OrNull(logger).WithFields(logging.Fields{"run_id": config.ID}),
	}
}

// Run executes the run. Scan and plan failures and cancellation before
// execution are returned as errors; per-file failures end up in the warnings
// or in the report.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	cfg := e.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "starting run", logging.Fields{
		"input":     cfg.InputPath,
		"output":    cfg.OutputPath,
		"mode":      cfg.Mode,
		"link_mode": cfg.LinkMode,
		"dry_run":   cfg.DryRun,
	})

	// 1. scan
	scanner := scan.New(scan.Options{
		Extensions: cfg.Extensions,
		Exclude:    cfg.Exclude,
		SkipDirs:   []string{cfg.OutputPath},
	}, e.logger)
	scanned, err := scanner.Scan(ctx, cfg.InputPath)
	if err != nil {
		return nil, err
	}
	warnings := append([]string(nil), scanned.Warnings...)

	// 2. classify
	lookup, classifyWarnings, err := e.classifyAll(ctx, scanned.Entries)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, classifyWarnings...)

	// 3. existing output folders, read-only
	var existing []string
	if cfg.AlignExisting {
		existing, err = e.backend.ListDirs(ctx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot list %s: %v", cfg.OutputPath, err))
			e.logger.Warn(ctx, "cannot list existing folders", logging.Fields{"error": err.Error()})
		}
	}

	// 4. plan
	p, err := plan.Build(scanned.Entries, lookup, plan.Options{
		Mode:          cfg.Mode,
		OutputRoot:    cfg.OutputPath,
		LinkMode:      cfg.LinkMode,
		ExistingDirs:  existing,
		AlignExisting: cfg.AlignExisting,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "planned", logging.Fields{
		"operations": p.Len(),
		"dirs":       len(p.Dirs),
		"bytes":      p.TotalBytes,
	})

	result := &Result{Plan: p, Warnings: warnings}

	// 5. preview or execute
	if cfg.DryRun {
		result.Preview = preview.Simulate(p)
		if err := e.formatter.Preview(result.Preview); err != nil {
			return result, fmt.Errorf("render preview: %w", err)
		}
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	executor := execute.New(e.backend, e.formatter, e.logger, execute.Options{
		Workers:        cfg.MaxWorkers,
		LinkFallback:   cfg.LinkFallback,
		BandwidthLimit: cfg.BandwidthLimit,
		Verify:         cfg.Verify,
		BufferSize:     cfg.BufferSize,
	})
	report, err := executor.Execute(ctx, p)
	if err != nil {
		return result, err
	}
	report.RunID = cfg.ID
	report.InputPath = cfg.InputPath
	report.Warnings = warnings
	result.Report = report

	if err := e.formatter.Complete(report); err != nil {
		e.logger.Warn(ctx, "cannot render report", logging.Fields{"error": err.Error()})
	}
	return result, nil
}

// needsClassification reports whether the mode reads classifier metadata
func needsClassification(mode models.OrganizeMode) bool {
	return mode == models.ModeContent || mode == models.ModeTest
}

// classifyAll classifies the entries with a bounded pool. Each call runs
// under its own timeout; a failed call degrades the file to the
// unclassified bucket and adds a warning. Only cancellation of the run is
// returned as an error.
func (e *Engine) classifyAll(ctx context.Context, entries []models.FileEntry) (plan.Lookup, []string, error) {
	lookup := make(plan.Lookup, len(entries))
	if !needsClassification(e.config.Mode) || len(entries) == 0 {
		return lookup, nil, nil
	}
	if e.classifier == nil {
		return nil, nil, fmt.Errorf("%s mode requires a classifier", e.config.Mode)
	}

	var (
		mu       sync.Mutex
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxWorkers)

	start := time.Now()
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			callCtx, cancel := context.WithTimeout(gctx, e.config.ClassifyTimeout)
			md, err := e.classifier.Classify(callCtx, entry)
			cancel()

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var classErr *models.ClassificationError
				if !errors.As(err, &classErr) {
					err = &models.ClassificationError{Path: entry.AbsolutePath, Err: err}
				}
				warnings = append(warnings, err.Error())
				lookup[entry.AbsolutePath] = models.Unclassified(entry)
				e.logger.Warn(ctx, "classification failed", logging.Fields{
					"file":  entry.AbsolutePath,
					"error": err.Error(),
				})
				return nil
			}

			lookup[entry.AbsolutePath] = md
			e.logger.Debug(ctx, "classified", logging.Fields{
				"file":     entry.AbsolutePath,
				"category": md.Category,
				"name":     md.SuggestedName,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Strings(warnings)
	e.logger.Info(ctx, "classification completed", logging.Fields{
		"files":    len(entries),
		"failed":   len(warnings),
		"duration": time.Since(start).String(),
	})
	return lookup, warnings, nil
}
