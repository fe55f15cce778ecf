// Package retry runs a function until it succeeds, the attempts run out or
// the context ends. A failed run reports how many attempts were made so that
// the caller can mention it when surfacing the error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAbort stops the retry loop when found in the error chain of an attempt.
var ErrAbort = errors.New("operation can not be completed")

// Error is returned when the function did not succeed. It wraps the error
// returned by the last attempt.
type Error struct {
	// Attempts is the number of times the function was called.
	Attempts int
	// Reason describes why retrying stopped.
	Reason string
	// Err is the error from the last attempt.
	Err error

	ctxErr error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("retry: %s after %d attempts", e.Reason, e.Attempts)
	if e.ctxErr != nil {
		msg += ": " + e.ctxErr.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the context error, if any, and the last attempt's error.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.ctxErr != nil {
		errs = append(errs, e.ctxErr)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Attempts returns the number of attempts recorded in err or 0 if err is not a
// retry error.
func Attempts(err error) int {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr.Attempts
	}
	return 0
}

// Cause returns the error from the last attempt if err is a retry error,
// otherwise err itself.
func Cause(err error) error {
	var rErr *Error
	if errors.As(err, &rErr) && rErr.Err != nil {
		return rErr.Err
	}
	return err
}

// Options for a retry loop.
type Options struct {
	delay       time.Duration
	factor      float64
	limit       int
	shouldRetry func(error) bool
	onRetry     func(attempt int, err error)
}

// Option is a functional option for Do and Get.
type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		delay:  2 * time.Second,
		factor: 1,
		shouldRetry: func(err error) bool {
			return !errors.Is(err, ErrAbort)
		},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// wait returns the pause following a failed attempt, delay * factor * attempt.
func (o Options) wait(attempt int) time.Duration {
	return time.Duration(float64(o.delay) * o.factor * float64(attempt))
}

// Delay sets the base delay between attempts. The default is 2 seconds.
func Delay(d time.Duration) Option {
	return func(o *Options) {
		o.delay = d
	}
}

// MaxRetries sets the maximum number of attempts. Zero, the default, keeps
// trying until the context ends.
func MaxRetries(n int) Option {
	return func(o *Options) {
		o.limit = n
	}
}

// Backoff sets the factor the delay is multiplied with on each attempt. The
// default is 1.
func Backoff(f float64) Option {
	return func(o *Options) {
		o.factor = f
	}
}

// If sets the function that decides whether a failed attempt is followed by
// another one. The default retries anything that is not ErrAbort.
func If(f func(error) bool) Option {
	return func(o *Options) {
		o.shouldRetry = f
	}
}

// OnRetry sets a function that is called after each failed attempt that
// will be followed by another one.
func OnRetry(f func(attempt int, err error)) Option {
	return func(o *Options) {
		o.onRetry = f
	}
}

// Do calls fn until it returns nil, an attempt limit is reached, the error is
// not retryable or the context ends.
func Do(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	options := newOptions(opts...)

	if err := ctx.Err(); err != nil {
		return &Error{Reason: "context done before first attempt", Err: err}
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case !options.shouldRetry(err):
			return &Error{Attempts: attempt, Reason: "abort condition reached", Err: err}
		case options.limit > 0 && attempt >= options.limit:
			return &Error{Attempts: attempt, Reason: "max retries reached", Err: err}
		}

		if options.onRetry != nil {
			options.onRetry(attempt, err)
		}

		timer := time.NewTimer(options.wait(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return &Error{Attempts: attempt, Reason: "context done", ctxErr: ctx.Err(), Err: err}
		}
	}
}

// Get is Do for functions that return a value.
func Get[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	}, opts...)
	return result, err
}
