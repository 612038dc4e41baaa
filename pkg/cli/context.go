// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cli contains helpers shared by smcctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// AbortNotice is printed to stderr once ^C or SIGTERM cancels a command.
const AbortNotice = "Signal received, aborting, pending SMC tasks keep running on the server..."

// WithContext runs f with a context cancelled by ^C or SIGTERM.
func WithContext(ctx context.Context, f func(context.Context) error) error {
	return withSignals(ctx, os.Stderr, f)
}

// WithTimeout is WithContext bounded by timeout, zero disables the bound.
func WithTimeout(ctx context.Context, timeout time.Duration, f func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return WithContext(ctx, f)
}

func withSignals(ctx context.Context, notice io.Writer, f func(context.Context) error) error {
	wrappedCtx, wrappedCtxCancel := context.WithCancel(ctx)
	defer wrappedCtxCancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	exited := make(chan struct{})
	defer close(exited)

	go func() {
		select {
		case <-sigCh:
			wrappedCtxCancel()

			signal.Stop(sigCh)
			fmt.Fprintln(notice, AbortNotice)
		case <-wrappedCtx.Done():
		case <-exited:
		}
	}()

	return f(wrappedCtx)
}
