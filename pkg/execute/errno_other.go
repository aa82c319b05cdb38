//go:build !unix

package execute

import (
	"errors"
	"io/fs"
	"syscall"
)

// errorNotSameDevice is ERROR_NOT_SAME_DEVICE
const errorNotSameDevice = syscall.Errno(17)

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice)
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
