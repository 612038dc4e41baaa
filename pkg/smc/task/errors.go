// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package task

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFollower is wrapped by SubmissionError when the server accepted the request without a follower.
	ErrNoFollower = errors.New("no follower returned")

	// ErrDeadlineExceeded is reported when the task did not finish within WithTimeout.
	ErrDeadlineExceeded = errors.New("task deadline exceeded")
)

// SubmissionError is returned when a task could not be started.
type SubmissionError struct {
	Href string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("error submitting task to %q: %s", e.Href, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// TaskFailedError is reported when the server finished the task unsuccessfully.
type TaskFailedError struct {
	Follower string
	Message  string
}

func (e *TaskFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task %q failed", e.Follower)
	}

	return fmt.Sprintf("task %q failed: %s", e.Follower, e.Message)
}
