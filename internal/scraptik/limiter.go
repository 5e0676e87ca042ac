package scraptik

import (
	"context"
	"sync"
	"time"
)

// Limiter serializes outbound API calls and enforces a minimum delay
// before each attempt. It is injected into the client so tests can
// substitute a no-op implementation.
type Limiter interface {
	// Acquire blocks until the caller may issue one request. It returns a
	// release function that must be called once the request completes, or
	// an error if ctx was cancelled while waiting.
	Acquire(ctx context.Context) (release func(), err error)
}

// SerialLimiter is a mutual-exclusion lock with a fixed pre-request
// sleep. While the lock is held no other request may start, so all
// clients sharing one limiter never have two calls in flight at once.
type SerialLimiter struct {
	mu    sync.Mutex
	delay time.Duration
}

// NewSerialLimiter builds a limiter that sleeps delay before admitting
// each request.
func NewSerialLimiter(delay time.Duration) *SerialLimiter {
	return &SerialLimiter{delay: delay}
}

// Acquire takes the lock, sleeps the pre-request delay, and hands back
// the unlock function.
func (l *SerialLimiter) Acquire(ctx context.Context) (func(), error) {
	l.mu.Lock()

	if l.delay > 0 {
		select {
		case <-ctx.Done():
			l.mu.Unlock()
			return nil, ctx.Err()
		case <-time.After(l.delay):
		}
	}

	return l.mu.Unlock, nil
}

// NopLimiter admits every request immediately. For tests.
type NopLimiter struct{}

func (NopLimiter) Acquire(ctx context.Context) (func(), error) {
	return func() {}, nil
}

// DefaultLimiter is shared by every client in the process so that all
// outbound ScrapTik calls are serialized process-wide. If multiple
// processes share one API key, that coordination has to happen outside
// this package (a shared queue or an external lock); the limiter only
// covers a single process.
var DefaultLimiter = NewSerialLimiter(1500 * time.Millisecond)

// limiterFor resolves the limiter for a configured per-request delay.
// The standard delay (and the zero value) joins DefaultLimiter so
// multiple clients stay serialized together; any other delay gets a
// dedicated serial limiter.
func limiterFor(delay time.Duration) Limiter {
	if delay <= 0 || delay == DefaultLimiter.delay {
		return DefaultLimiter
	}
	return NewSerialLimiter(delay)
}
