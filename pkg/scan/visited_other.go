//go:build !unix

package scan

import "path/filepath"

// identity returns the real path of a file; inode numbers are not portable here
func identity(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return "path:" + real, nil
}
