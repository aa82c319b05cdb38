package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind categorizes failures for reporting
type ErrorKind string

const (
	ErrKindNone           ErrorKind = ""
	ErrKindScan           ErrorKind = "scan"
	ErrKindClassification ErrorKind = "classification"
	ErrKindPlan           ErrorKind = "plan"
	ErrKindCollision      ErrorKind = "collision"
	ErrKindCrossDevice    ErrorKind = "cross-device"
	ErrKindPermission     ErrorKind = "permission"
	ErrKindIO             ErrorKind = "io"
	ErrKindExists         ErrorKind = "exists"
	ErrKindCancelled      ErrorKind = "cancelled"
)

// ErrDestinationExists is returned when an operation would overwrite an existing path
var ErrDestinationExists = errors.New("destination already exists")

// ScanError is fatal: the input root is missing or unreadable
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ClassificationError is per file; the file falls back to the unclassified bucket
type ClassificationError struct {
	Path string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify %s: %v", e.Path, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// PlanError is fatal: the output root cannot be resolved
type PlanError struct {
	OutputRoot string
	Err        error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("cannot plan into %s: %v", e.OutputRoot, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// CollisionResolutionExhausted reports a destination for which no free
// disambiguated name was found. The planner widens the suffix range instead
// of returning it, so it never surfaces from a run.
type CollisionResolutionExhausted struct {
	Destination string
	Attempts    int
}

func (e *CollisionResolutionExhausted) Error() string {
	return fmt.Sprintf("no free name for %s after %d attempts", e.Destination, e.Attempts)
}

// CrossDeviceError is returned when a hardlink spans filesystems
type CrossDeviceError struct {
	Source      string
	Destination string
	Err         error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot hardlink %s to %s across devices: %v", e.Source, e.Destination, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// PermissionError is returned when the platform or policy refuses an operation,
// e.g. unprivileged symlink creation
type PermissionError struct {
	Op   string
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s: permission denied: %v", e.Op, e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// IOError is returned when reading or writing data fails (disk full, ...)
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// KindOf maps an error to its reporting category
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}

	var (
		scanErr  *ScanError
		classErr *ClassificationError
		planErr  *PlanError
		collErr  *CollisionResolutionExhausted
		crossErr *CrossDeviceError
		permErr  *PermissionError
		ioErr    *IOError
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCancelled
	case errors.Is(err, ErrDestinationExists):
		return ErrKindExists
	case errors.As(err, &crossErr):
		return ErrKindCrossDevice
	case errors.As(err, &permErr):
		return ErrKindPermission
	case errors.As(err, &ioErr):
		return ErrKindIO
	case errors.As(err, &classErr):
		return ErrKindClassification
	case errors.As(err, &scanErr):
		return ErrKindScan
	case errors.As(err, &planErr):
		return ErrKindPlan
	case errors.As(err, &collErr):
		return ErrKindCollision
	default:
		return ErrKindIO
	}
}
