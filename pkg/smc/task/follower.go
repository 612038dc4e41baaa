// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package task

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/siderolabs/go-retry/retry"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// noDeadline stands in for an unbounded retry duration.
const noDeadline = 10 * 365 * 24 * time.Hour

var errStillRunning = errors.New("task is still running")

// Follower tracks one submitted task.
type Follower struct {
	client  Client
	href    string
	options Options
	logger  *zap.Logger
}

// Href returns the follower locator.
func (f *Follower) Href() string {
	return f.href
}

// Status fetches the follower once.
func (f *Follower) Status(ctx context.Context) (*Status, error) {
	element, err := f.client.Fetch(ctx, f.href)
	if err != nil {
		return nil, err
	}

	var status Status

	if err = element.Decode(&status); err != nil {
		return nil, err
	}

	return &status, nil
}

// Events returns the sequence of task events.
//
// The sequence ends with exactly one EventDone or EventFailed, or with the
// single EventFollower when waiting is disabled. Ranging over it again
// polls the same follower again.
func (f *Follower) Events(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !f.options.Wait {
			yield(EventFollower{Href: f.href})

			return
		}

		f.poll(ctx, yield)
	}
}

// Watch runs Events in a goroutine and delivers them on the returned channel.
//
// The channel is closed after the terminal event or when ctx is canceled.
func (f *Follower) Watch(ctx context.Context) <-chan Event {
	ch := make(chan Event)

	go func() {
		defer close(ch)

		for ev := range f.Events(ctx) {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Wait drains the events and returns the result locator.
//
// With waiting disabled Wait returns the follower locator.
func (f *Follower) Wait(ctx context.Context) (string, error) {
	for ev := range f.Events(ctx) {
		switch ev := ev.(type) {
		case EventDone:
			return ev.Href, nil
		case EventFailed:
			return "", ev.Err
		case EventFollower:
			return ev.Href, nil
		}
	}

	return "", fmt.Errorf("task %q: no terminal event", f.href)
}

func (f *Follower) poll(ctx context.Context, yield func(Event) bool) {
	var (
		lastMessage string
		terminal    Event
		stopped     bool
		fatal       error
	)

	timeout := f.options.Timeout
	if timeout <= 0 {
		timeout = noDeadline
	}

	parent := ctx

	err := retry.Constant(timeout, retry.WithUnits(f.options.Interval)).RetryWithContext(ctx, func(ctx context.Context) error {
		status, err := f.Status(ctx)
		if err != nil {
			// cut short by cancellation or the polling deadline, classified below
			if ctx.Err() != nil {
				return err
			}

			fatal = fmt.Errorf("error polling task %q: %w", f.href, err)

			return fatal
		}

		f.logger.Debug("task status",
			zap.String("follower", f.href),
			zap.Bool("in_progress", status.InProgress),
			zap.Bool("success", status.Success),
		)

		if message := StripMarkup(status.LastMessage); message != "" && message != lastMessage {
			lastMessage = message

			if f.options.Messages && !yield(EventProgress{Message: message}) {
				stopped = true

				return nil
			}
		}

		switch {
		case status.Success:
			href, _ := status.Result()
			terminal = EventDone{Href: href}

			return nil
		case f.options.FailureDetection && status.Failed():
			fatal = &TaskFailedError{Follower: f.href, Message: lastMessage}

			return fatal
		}

		return retry.ExpectedError(errStillRunning)
	})

	if stopped {
		return
	}

	switch {
	case err == nil:
	case fatal != nil:
		terminal = EventFailed{Err: fatal}
	case parent.Err() != nil:
		terminal = EventFailed{Err: parent.Err()}
	default:
		terminal = EventFailed{Err: fmt.Errorf("%w: %q after %s", ErrDeadlineExceeded, f.href, f.options.Timeout)}
	}

	yield(terminal)
}

// StripMarkup removes HTML tags from a status message.
func StripMarkup(message string) string {
	if !strings.ContainsRune(message, '<') {
		return strings.TrimSpace(message)
	}

	var sb strings.Builder

	tokenizer := html.NewTokenizer(strings.NewReader(message))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		}
	}
}
