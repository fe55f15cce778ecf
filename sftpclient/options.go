package sftpclient

import (
	"github.com/k0sproject/pathguard/log"
	"github.com/k0sproject/pathguard/retry"
	"github.com/pkg/sftp"
)

// Options for a Client.
type Options struct {
	log.LoggerInjectable
	PasswordCallback PasswordCallback
	SFTPOptions      []sftp.ClientOption
	RetryOptions     []retry.Option
}

// Option is a functional option for a Client.
type Option func(*Options)

// NewOptions returns Options with the given options applied.
func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithLogger sets the logger for the client and the validators it creates.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.SetLogger(l)
	}
}

// WithPasswordCallback sets the function used to obtain the passphrase of an encrypted key.
func WithPasswordCallback(cb PasswordCallback) Option {
	return func(o *Options) {
		o.PasswordCallback = cb
	}
}

// WithSFTPOptions passes options to the underlying sftp.Client.
func WithSFTPOptions(opts ...sftp.ClientOption) Option {
	return func(o *Options) {
		o.SFTPOptions = append(o.SFTPOptions, opts...)
	}
}

// WithRetryOptions adds options for the connection retry loop, these are
// applied after the ones derived from the Config.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Options) {
		o.RetryOptions = append(o.RetryOptions, opts...)
	}
}
