package execute

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run holds the lock of the output root
var ErrLocked = errors.New("another run is writing to this output root")

// LockPath returns the lock file used for an output root
func LockPath(dir, outputRoot string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	sum := sha256.Sum256([]byte(filepath.Clean(outputRoot)))
	return filepath.Join(dir, "filenorris-"+hex.EncodeToString(sum[:8])+".lock")
}

func acquireLock(dir, outputRoot string) (*flock.Flock, error) {
	lock := flock.New(LockPath(dir, outputRoot))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputRoot)
	}
	return lock, nil
}
