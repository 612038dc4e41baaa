// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package task

import (
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the delay between two follower polls.
const DefaultInterval = 3 * time.Second

// Options configure how a task is followed.
type Options struct {
	Interval         time.Duration
	Timeout          time.Duration
	Wait             bool
	Messages         bool
	FailureDetection bool
	Logger           *zap.Logger
}

// Option is a functional option for Submit and Follow.
type Option func(*Options)

// DefaultOptions returns the options applied before user options.
func DefaultOptions() Options {
	return Options{
		Interval:         DefaultInterval,
		Wait:             true,
		Messages:         true,
		FailureDetection: true,
		Logger:           zap.NewNop(),
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Interval = d
		}
	}
}

// WithTimeout bounds the total polling time.
//
// Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithWait controls whether the follower is polled.
func WithWait(wait bool) Option {
	return func(o *Options) {
		o.Wait = wait
	}
}

// WithoutWait returns right after submission, the only event is the follower href.
func WithoutWait() Option {
	return WithWait(false)
}

// WithoutMessages suppresses progress events.
func WithoutMessages() Option {
	return func(o *Options) {
		o.Messages = false
	}
}

// WithFailureDetection controls whether a finished but unsuccessful task is reported as failed.
// When disabled, polling continues until success or deadline.
func WithFailureDetection(enabled bool) Option {
	return func(o *Options) {
		o.FailureDetection = enabled
	}
}

// WithLogger sets the logger for poll tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func buildOptions(opts []Option) Options {
	options := DefaultOptions()

	for _, opt := range opts {
		opt(&options)
	}

	return options
}
