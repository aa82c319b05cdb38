package execute

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sdejongh/filenorris/pkg/logging"
	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/output"
	"github.com/sdejongh/filenorris/pkg/ratelimit"
	"github.com/sdejongh/filenorris/pkg/storage"
	"github.com/sdejongh/filenorris/pkg/verify"
)

// Options configures an Executor
type Options struct {
	// Workers bounds the number of concurrent operations
	Workers int

	// LinkFallback retries a failed hard or symbolic link as a copy
	LinkFallback bool

	// BandwidthLimit caps copy throughput in bytes per second, 0 = unlimited
	BandwidthLimit int64

	// LockDir holds the run lock files, defaults to the OS temp dir
	LockDir string

	// Verify re-reads every copy and compares it with its source
	Verify bool

	// BufferSize is the read buffer used by verification
	BufferSize int
}

// Executor applies a plan to the filesystem. It never overwrites an
// existing destination and yields exactly one outcome per operation.
type Executor struct {
	backend   storage.Backend
	formatter output.Formatter
	logger    logging.Logger
	opts      Options
	limiter   *ratelimit.Limiter
	verifier  *verify.Verifier

	// progressMu serializes formatter calls from the workers
	progressMu sync.Mutex
}

// New creates an executor writing through backend
func New(backend storage.Backend, formatter output.Formatter, logger logging.Logger, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if formatter == nil {
		formatter = output.NullFormatter{}
	}
	e := &Executor{
		backend:   backend,
		formatter: formatter,
		logger:    logging.OrNull(logger),
		opts:      opts,
		limiter:   ratelimit.NewLimiter(opts.BandwidthLimit),
	}
	if opts.Verify {
		e.verifier = verify.New(opts.BufferSize)
	}
	return e
}

// Execute runs every operation of the plan and returns the report. The only
// error is a failure to lock the output root; per-operation failures are
// recorded as outcomes.
func (e *Executor) Execute(ctx context.Context, plan *models.Plan) (*models.RunReport, error) {
	report := &models.RunReport{
		OutputPath: plan.OutputRoot,
		Mode:       plan.Mode,
		LinkMode:   plan.LinkMode,
		StartTime:  time.Now(),
	}

	lock, err := acquireLock(e.opts.LockDir, plan.OutputRoot)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn(ctx, "failed to release run lock", logging.Fields{"lock": lock.Path(), "error": err.Error()})
		}
	}()

	e.logger.Info(ctx, "executing plan", logging.Fields{
		"output":     plan.OutputRoot,
		"operations": plan.Len(),
		"dirs":       len(plan.Dirs),
		"link_mode":  plan.LinkMode,
		"workers":    e.opts.Workers,
		"bandwidth":  e.limiter.BytesPerSecond(),
		"verify":     e.verifier != nil,
	})
	e.formatter.Start(nil, plan.Len(), plan.TotalBytes)

	// Phase 1: directories
	failedDirs, created := e.createDirs(ctx, plan.Dirs)
	report.Stats.DirsCreated = created

	// Phase 2: operations
	outcomes := make([]models.Outcome, plan.Len())
	semaphore := make(chan struct{}, e.opts.Workers)
	var wg sync.WaitGroup

	for i, op := range plan.Operations {
		index := i + 1

		if dirErr, failed := failedDirs[filepath.Dir(op.DestinationPath)]; failed {
			outcomes[i] = e.failed(ctx, index, op, dirErr, 0)
			continue
		}

		select {
		case <-ctx.Done():
			outcomes[i] = e.failed(ctx, index, op, ctx.Err(), 0)
			continue
		case semaphore <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-semaphore
			outcomes[i] = e.failed(ctx, index, op, ctx.Err(), 0)
			continue
		}

		wg.Add(1)
		go func(i int, op models.Operation) {
			defer wg.Done()
			defer func() { <-semaphore }()
			outcomes[i] = e.run(ctx, i+1, op)
		}(i, op)
	}
	wg.Wait()

	report.Outcomes = outcomes
	report.EndTime = time.Now()
	report.Finalize(ctx.Err() != nil)

	e.logger.Info(ctx, "execution completed", logging.Fields{
		"duration":     report.Duration.String(),
		"status":       report.Status,
		"succeeded":    report.Stats.Succeeded,
		"failed":       report.Stats.Failed,
		"fell_back":    report.Stats.FellBack,
		"dirs_created": report.Stats.DirsCreated,
		"bytes_copied": report.Stats.BytesCopied,
	})
	return report, nil
}

// createDirs ensures every planned directory exists, concurrently and
// bounded by the worker count. It returns the directories that could not
// be created and how many were new.
func (e *Executor) createDirs(ctx context.Context, dirs []string) (map[string]error, int) {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		failed    = make(map[string]error)
		created   int
		semaphore = make(chan struct{}, e.opts.Workers)
	)

	for _, dir := range dirs {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var existed bool
			err := ctx.Err()
			if err == nil {
				existed, _ = e.backend.Exists(ctx, dir)
				err = e.backend.MkdirAll(ctx, dir)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[dir] = classify("mkdir", dir, err)
				e.logger.Error(ctx, "cannot create directory", err, logging.Fields{"dir": dir})
				e.progress(output.ProgressUpdate{
					Type:        output.UpdateDirError,
					Destination: dir,
					Error:       err,
				})
				return
			}
			if !existed {
				created++
			}
		}(dir)
	}
	wg.Wait()
	return failed, created
}

// run performs one operation and builds its outcome
func (e *Executor) run(ctx context.Context, index int, op models.Operation) models.Outcome {
	start := time.Now()
	e.progress(output.ProgressUpdate{
		Type:        output.UpdateOpStart,
		Source:      op.SourcePath,
		Destination: op.DestinationPath,
		TotalBytes:  op.Size,
		Index:       index,
	})

	err := e.place(ctx, index, op)

	fellBack := false
	if err != nil && e.opts.LinkFallback && op.LinkMode.IsAlias() && canFallBack(err) {
		e.logger.Warn(ctx, "link failed, copying instead", logging.Fields{
			"source":      op.SourcePath,
			"destination": op.DestinationPath,
			"error":       err.Error(),
		})
		if copyErr := e.copy(ctx, index, op); copyErr != nil {
			err = fmt.Errorf("%w (copy fallback: %v)", err, copyErr)
		} else {
			err = nil
			fellBack = true
		}
	}

	if err != nil {
		return e.failed(ctx, index, op, err, time.Since(start))
	}

	e.logger.Debug(ctx, "operation completed", logging.Fields{
		"source":      op.SourcePath,
		"destination": op.DestinationPath,
		"link_mode":   op.LinkMode,
		"fell_back":   fellBack,
	})
	e.progress(output.ProgressUpdate{
		Type:        output.UpdateOpComplete,
		Source:      op.SourcePath,
		Destination: op.DestinationPath,
		Bytes:       op.Size,
		TotalBytes:  op.Size,
		Index:       index,
		FellBack:    fellBack,
	})
	return models.Outcome{
		Operation: op,
		Status:    models.OutcomeSuccess,
		FellBack:  fellBack,
		Duration:  time.Since(start),
	}
}

func (e *Executor) failed(ctx context.Context, index int, op models.Operation, err error, d time.Duration) models.Outcome {
	kind := models.KindOf(err)
	if kind == models.ErrKindCancelled {
		e.logger.Debug(ctx, "operation cancelled", logging.Fields{"source": op.SourcePath})
	} else {
		e.logger.Error(ctx, "operation failed", err, logging.Fields{
			"source":      op.SourcePath,
			"destination": op.DestinationPath,
			"kind":        kind,
		})
	}
	e.progress(output.ProgressUpdate{
		Type:        output.UpdateOpError,
		Source:      op.SourcePath,
		Destination: op.DestinationPath,
		Index:       index,
		Error:       err,
	})
	return models.Outcome{
		Operation: op,
		Status:    models.OutcomeFailed,
		Reason:    err.Error(),
		Kind:      kind,
		Err:       err,
		Duration:  d,
	}
}

func (e *Executor) progress(update output.ProgressUpdate) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.formatter.Progress(update)
}

// place dispatches on the link mode
func (e *Executor) place(ctx context.Context, index int, op models.Operation) error {
	switch op.LinkMode {
	case models.LinkHard:
		err := e.backend.Link(ctx, op.SourcePath, op.DestinationPath)
		if err != nil && isCrossDevice(err) {
			return &models.CrossDeviceError{Source: op.SourcePath, Destination: op.DestinationPath, Err: err}
		}
		if err != nil {
			return classify("hardlink", op.DestinationPath, err)
		}
		return nil
	case models.LinkSymbolic:
		if err := e.backend.Symlink(ctx, op.SourcePath, op.DestinationPath); err != nil {
			return classify("symlink", op.DestinationPath, err)
		}
		return nil
	default:
		return e.copy(ctx, index, op)
	}
}

// copy streams the source into the destination, preserving mode and mtime
func (e *Executor) copy(ctx context.Context, index int, op models.Operation) error {
	info, err := e.backend.Stat(ctx, op.SourcePath)
	if err != nil {
		return classify("stat", op.SourcePath, err)
	}

	reader, err := e.backend.Read(ctx, op.SourcePath)
	if err != nil {
		return classify("open", op.SourcePath, err)
	}
	defer reader.Close()

	pr := &progressReader{
		reader:         ratelimit.NewReader(ctx, reader, e.limiter),
		lastReportTime: time.Now(),
		onProgress: func(bytesRead int64) {
			e.progress(output.ProgressUpdate{
				Type:        output.UpdateOpBytes,
				Destination: op.DestinationPath,
				Bytes:       bytesRead,
				TotalBytes:  info.Size,
				Index:       index,
			})
		},
	}

	if err := e.backend.Write(ctx, op.DestinationPath, pr, info.Size, info); err != nil {
		return classify("copy", op.DestinationPath, err)
	}

	if e.verifier == nil {
		return nil
	}
	cmp, err := e.verifier.Compare(ctx, e.backend, op.SourcePath, op.DestinationPath)
	if err != nil {
		return classify("verify", op.DestinationPath, err)
	}
	if err := cmp.Err(); err != nil {
		return &models.IOError{Op: "verify", Path: op.DestinationPath, Err: err}
	}
	return nil
}

// canFallBack reports whether a failed link may be retried as a copy
func canFallBack(err error) bool {
	return !errors.Is(err, models.ErrDestinationExists) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// classify maps a raw filesystem error to the error taxonomy
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, models.ErrDestinationExists),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case isPermission(err):
		return &models.PermissionError{Op: op, Path: path, Err: err}
	default:
		return &models.IOError{Op: op, Path: path, Err: err}
	}
}
