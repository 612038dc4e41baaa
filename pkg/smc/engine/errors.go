// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a named element does not exist on the server.
	ErrNotFound = errors.New("not found")

	// ErrCapabilityUnavailable is returned when the engine (or the addressed
	// member) does not expose the relation an operation needs. No request is
	// issued in that case.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrNotLoaded is returned by operations on an engine which was never loaded.
	ErrNotLoaded = errors.New("engine is not loaded")

	// ErrNoInstalledPolicy is returned by Upload without a policy name when the engine has none installed.
	ErrNoInstalledPolicy = errors.New("no policy is installed on the engine")
)

// ClusterAddressingError is returned when a member operation on a clustered
// engine names no member or an unknown one.
type ClusterAddressingError struct {
	Engine string
	Member string
	Known  []string
}

func (e *ClusterAddressingError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("engine %q is clustered, a member name is required (one of: %s)", e.Engine, strings.Join(e.Known, ", "))
	}

	return fmt.Sprintf("engine %q has no member %q (one of: %s)", e.Engine, e.Member, strings.Join(e.Known, ", "))
}

func capabilityUnavailable(op, engineName, member string) error {
	if member != "" {
		return fmt.Errorf("%w: %q on member %q of engine %q", ErrCapabilityUnavailable, op, member, engineName)
	}

	return fmt.Errorf("%w: %q on engine %q", ErrCapabilityUnavailable, op, engineName)
}
