package fserror

import "strconv"

// Options for formatting.
type Options struct {
	attempts int
}

// Option is a functional option for Format and WithContext.
type Option func(*Options)

// NewOptions returns Options with the given options applied.
func NewOptions(opts ...Option) Options {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Attempts sets the number of attempts that were made before giving up. When
// set to a positive value, the message gets an " after N attempt(s)" suffix.
func Attempts(n int) Option {
	return func(o *Options) {
		o.attempts = n
	}
}

func (o Options) suffix() string {
	switch {
	case o.attempts <= 0:
		return ""
	case o.attempts == 1:
		return " after 1 attempt"
	default:
		return " after " + strconv.Itoa(o.attempts) + " attempts"
	}
}
