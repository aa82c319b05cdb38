// Package verify checks that a copied file matches its source.
package verify

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/filenorris/pkg/storage"
)

// Partial hashing configuration
const (
	// Minimum file size to compare a head digest first (1MB)
	partialHashThreshold = 1 * 1024 * 1024
	// Size of the head digest (256KB)
	partialHashSize = 256 * 1024
)

// ErrMismatch is returned when a copy does not match its source
var ErrMismatch = errors.New("copy does not match source")

// Result represents the outcome of comparing a source and its copy
type Result string

const (
	// Same indicates the copy is identical to the source
	Same Result = "same"
	// Different indicates the copy differs from the source
	Different Result = "different"
)

// Comparison holds the result of one verification
type Comparison struct {
	SourcePath string
	DestPath   string
	Result     Result
	Reason     string
}

// Err returns ErrMismatch wrapped with the reason, or nil when the files match
func (c *Comparison) Err() error {
	if c.Result == Same {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMismatch, c.Reason)
}

// Verifier compares files by size, then SHA-256
type Verifier struct {
	bufferSize int
	bufferPool *sync.Pool
}

// New creates a verifier reading with buffers of bufferSize bytes
func New(bufferSize int) *Verifier {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Verifier{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Compare reads source and dest through backend and reports whether they hold
// the same bytes. Large files are rejected early on a differing head digest.
func (v *Verifier) Compare(ctx context.Context, backend storage.Backend, source, dest string) (*Comparison, error) {
	cmp := &Comparison{SourcePath: source, DestPath: dest}

	sourceInfo, err := backend.Stat(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	destInfo, err := backend.Stat(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat destination file: %w", err)
	}

	if sourceInfo.Size != destInfo.Size {
		cmp.Result = Different
		cmp.Reason = fmt.Sprintf("sizes differ (%d != %d)", sourceInfo.Size, destInfo.Size)
		return cmp, nil
	}

	if sourceInfo.Size >= partialHashThreshold {
		srcHead, dstHead, err := v.hashPair(ctx, backend, source, dest, partialHashSize)
		if err != nil {
			return nil, err
		}
		if srcHead != dstHead {
			cmp.Result = Different
			cmp.Reason = "partial hashes differ"
			return cmp, nil
		}
	}

	srcHash, dstHash, err := v.hashPair(ctx, backend, source, dest, -1)
	if err != nil {
		return nil, err
	}
	if srcHash != dstHash {
		cmp.Result = Different
		cmp.Reason = "hashes differ"
		return cmp, nil
	}

	cmp.Result = Same
	cmp.Reason = "hashes match"
	return cmp, nil
}

// hashPair digests both files concurrently
func (v *Verifier) hashPair(ctx context.Context, backend storage.Backend, source, dest string, limit int64) (string, string, error) {
	var srcHash, dstHash string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := v.hash(gctx, backend, source, limit)
		srcHash = h
		return err
	})
	g.Go(func() error {
		h, err := v.hash(gctx, backend, dest, limit)
		dstHash = h
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return srcHash, dstHash, nil
}

// hash computes the SHA-256 of the first limit bytes of path, or of the
// whole file when limit is negative
func (v *Verifier) hash(ctx context.Context, backend storage.Backend, path string, limit int64) (string, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if limit >= 0 {
		src = io.LimitReader(reader, limit)
	}

	hasher := sha256.New()

	bufPtr := v.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer v.bufferPool.Put(bufPtr)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
