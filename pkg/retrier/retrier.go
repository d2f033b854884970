// Package retrier retries fallible calls with capped exponential backoff.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMaxRetries      = 5

	// backoffFactor grows the wait between attempts, jitterFraction spreads it by up to ±10%.
	backoffFactor  = 2
	jitterFraction = 0.1
)

// Retrier repeats a call until it succeeds, the predicate rejects the error or the attempts run out.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	maxRetries      int
	retryIf         func(error) bool
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the wait before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = d
	}
}

// WithMaxInterval caps the wait between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.maxInterval = d
	}
}

// WithMaxRetries sets how many times a failed call is repeated. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithRetryIf sets the predicate deciding whether an error is retried.
// Errors rejected by it are returned immediately.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) {
		r.retryIf = fn
	}
}

// New creates a Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		maxRetries:      defaultMaxRetries,
		retryIf:         func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.maxInterval < r.initialInterval {
		r.maxInterval = r.initialInterval
	}

	return r
}

// Do calls fn until it succeeds. The last error is returned once the retries are spent.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := r.initialInterval

	err := fn(ctx)
	for retry := 0; err != nil && retry < r.maxRetries && r.retryIf(err); retry++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(spread(interval)):
		}

		interval = r.next(interval)
		err = fn(ctx)
	}

	return err
}

// next returns the wait that follows current, capped at the max interval.
func (r *Retrier) next(current time.Duration) time.Duration {
	grown := current * backoffFactor
	if grown > r.maxInterval || grown < current {
		return r.maxInterval
	}
	return grown
}

func spread(interval time.Duration) time.Duration {
	jitter := (rand.Float64()*2 - 1) * jitterFraction * float64(interval)
	return max(time.Duration(float64(interval)+jitter), 0)
}

// DoWithData calls fn like Do and returns the value of the successful call.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
