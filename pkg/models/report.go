package models

import (
	"time"
)

// OutcomeStatus is the result of one operation
type OutcomeStatus string

const (
	// OutcomeSuccess indicates the destination was created
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailed indicates the operation was attempted (or cancelled) and failed
	OutcomeFailed OutcomeStatus = "failed"
)

// Outcome is the per-operation result of an execution.
// Every operation of a plan yields exactly one outcome.
type Outcome struct {
	Operation Operation
	Status    OutcomeStatus

	// Reason is the failure message, empty on success
	Reason string

	// Kind classifies the failure (cross-device, permission, io, ...)
	Kind ErrorKind

	// Err is the underlying error, nil on success
	Err error `json:"-"`

	// FellBack is set when a link failed and the file was copied instead
	FellBack bool

	Duration time.Duration
}

// Succeeded reports whether the operation succeeded
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some operations failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates every operation failed
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Statistics holds execution metrics
type Statistics struct {
	Operations  int
	Succeeded   int
	Failed      int
	FellBack    int
	DirsCreated int

	// BytesCopied counts data written by copy operations only
	BytesCopied int64
}

// RunReport aggregates the outcomes of one execution
type RunReport struct {
	RunID      string
	InputPath  string
	OutputPath string
	Mode       OrganizeMode
	LinkMode   LinkMode
	DryRun     bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats Statistics

	// Outcomes are in plan order
	Outcomes []Outcome

	// Warnings are non-fatal per-file problems from scan and classification
	Warnings []string

	Status RunStatus
}

// Failures returns the failed outcomes
func (r *RunReport) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Finalize computes statistics and the overall status from the outcomes
func (r *RunReport) Finalize(cancelled bool) {
	r.Stats.Operations = len(r.Outcomes)
	r.Stats.Succeeded = 0
	r.Stats.Failed = 0
	r.Stats.FellBack = 0
	r.Stats.BytesCopied = 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			r.Stats.Succeeded++
			if o.Operation.LinkMode == LinkCopy || o.FellBack {
				r.Stats.BytesCopied += o.Operation.Size
			}
		} else {
			r.Stats.Failed++
		}
		if o.FellBack {
			r.Stats.FellBack++
		}
	}

	switch {
	case cancelled:
		r.Status = StatusCancelled
	case r.Stats.Failed == 0:
		r.Status = StatusSuccess
	case r.Stats.Succeeded == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}

	if r.EndTime.IsZero() {
		r.EndTime = time.Now()
	}
	r.Duration = r.EndTime.Sub(r.StartTime)
}
