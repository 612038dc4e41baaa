// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package task

// Event is one value produced while following a task.
//
// It is one of EventProgress, EventDone, EventFailed or EventFollower.
// EventDone and EventFailed are terminal.
type Event interface {
	event()
}

// EventProgress carries a new status message.
type EventProgress struct {
	Message string
}

// EventDone is produced once the task succeeded.
//
// Href is the result locator, empty if the task has no result.
type EventDone struct {
	Href string
}

// EventFailed is produced when following the task failed.
type EventFailed struct {
	Err error
}

// EventFollower is the only event produced when waiting is disabled.
type EventFollower struct {
	Href string
}

func (EventProgress) event() {}
func (EventDone) event()     {}
func (EventFailed) event()   {}
func (EventFollower) event() {}
