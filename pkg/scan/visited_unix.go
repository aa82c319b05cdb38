//go:build unix

package scan

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// identity returns a key that is equal for two paths resolving to the same
// file. It uses device and inode numbers and falls back to the real path
// when stat information is unavailable.
func identity(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		return inodeKey(uint64(st.Dev), uint64(st.Ino)), nil
	}
	return realPathKey(path)
}

func realPathKey(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return "path:" + real, nil
}
