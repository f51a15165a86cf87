// Package resilience retries store operations that fail for transient
// reasons such as a locked SQLite file or a dropped Postgres connection.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAttempts = 3
	defaultBase     = 200 * time.Millisecond
	defaultCap      = 5 * time.Second
)

// Policy says how often and how patiently one store operation is retried.
// Only errors classified by IsTransient are retried.
type Policy struct {
	Backend string // "sqlite", "postgres" or "store", for log lines
	Op      string

	// Attempts counts the first try. 1 disables retrying.
	Attempts int
	// Base is the delay before the first retry. It doubles per retry up to Cap.
	Base time.Duration
	Cap  time.Duration
}

// StorePolicy returns the policy for op against backend. attempts <= 0 keeps
// the default of 3.
func StorePolicy(backend, op string, attempts int) Policy {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return Policy{Backend: backend, Op: op, Attempts: attempts, Base: defaultBase, Cap: defaultCap}
}

// Run is Retry for operations without a result.
func Run(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry calls fn until it succeeds or returns a non-transient error, the
// policy runs out of attempts, or ctx ends. The last error is returned as is.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	for try := 1; ; try++ {
		v, err := fn(ctx)
		if err == nil || try >= p.Attempts || ctx.Err() != nil || !IsTransient(err) {
			return v, err
		}

		zap.L().Warn("retrying store operation",
			zap.String("backend", p.Backend),
			zap.String("operation", p.Op),
			zap.Int("attempt", try),
			zap.Error(err),
		)

		t := time.NewTimer(p.wait(try))
		select {
		case <-ctx.Done():
			t.Stop()
			return v, err
		case <-t.C:
		}
	}
}

// wait returns the pause after the given failed try: half the capped
// exponential delay fixed, the other half random.
func (p Policy) wait(try int) time.Duration {
	base, ceiling := p.Base, p.Cap
	if base <= 0 {
		base = defaultBase
	}
	if ceiling <= 0 {
		ceiling = defaultCap
	}
	d := base
	for i := 1; i < try && d < ceiling; i++ {
		d *= 2
	}
	d = min(d, ceiling)
	half := d / 2
	return half + rand.N(d-half+1)
}
