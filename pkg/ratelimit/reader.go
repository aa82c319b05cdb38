package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBucketSize keeps small limits from degrading into tiny reads
const minBucketSize = 65536

// Limiter is a token bucket shared by every copy of a run, so the
// configured bandwidth bounds the sum of all concurrent transfers
type Limiter struct {
	bytesPerSecond int64
	bucketSize     int64

	mu         sync.Mutex
	tokens     int64 // may go negative: outstanding debt paid by waiting
	lastUpdate time.Time
	now        func() time.Time
}

// NewLimiter creates a limiter for bytesPerSecond; it returns nil (no
// limiting) when the rate is not positive. The bucket holds one second
// worth of data, and never less than 64KB.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	bucketSize := bytesPerSecond
	if bucketSize < minBucketSize {
		bucketSize = minBucketSize
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucketSize:     bucketSize,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
		now:            time.Now,
	}
}

// BytesPerSecond returns the configured rate
func (l *Limiter) BytesPerSecond() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Wait reserves n bytes and blocks until the bucket has paid for them
func (l *Limiter) Wait(ctx context.Context, n int64) error {
	if l == nil || n <= 0 {
		return nil
	}

	delay := l.reserve(n)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		l.refund(n)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve takes n tokens and returns how long the caller must wait for the deficit
func (l *Limiter) reserve(n int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	l.tokens -= n
	if l.tokens >= 0 {
		return 0
	}
	deficit := -l.tokens
	return time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
}

// refund returns unused tokens, capped at the bucket size
func (l *Limiter) refund(n int64) {
	if l == nil || n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens += n
	if l.tokens > l.bucketSize {
		l.tokens = l.bucketSize
	}
}

// refill adds tokens for the elapsed time (must be called with lock held)
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastUpdate)
	add := int64(float64(elapsed) / float64(time.Second) * float64(l.bytesPerSecond))
	if add <= 0 {
		return
	}
	l.tokens += add
	if l.tokens > l.bucketSize {
		l.tokens = l.bucketSize
	}
	l.lastUpdate = now
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps reader; a nil limiter returns reader unchanged
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{reader: reader, limiter: limiter, ctx: ctx}
}

// Read reserves tokens for up to one bucket of data, reads, and gives back
// what the underlying reader did not use
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	want := int64(len(p))
	if want > r.limiter.bucketSize {
		want = r.limiter.bucketSize
	}
	if err := r.limiter.Wait(r.ctx, want); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(p[:want])
	r.limiter.refund(want - int64(n))
	return n, err
}
