// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package helpers contains small utilities shared by smcctl commands.
package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gertd/go-pluralize"
	"github.com/hashicorp/go-multierror"
)

// engineTarget labels failures not attributed to a member.
const engineTarget = "engine"

// MemberError is the failure of one member in a fan-out.
type MemberError struct {
	Member string
	Err    error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s: %s", e.target(), e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

func (e *MemberError) target() string {
	if e.Member == "" {
		return engineTarget
	}

	return e.Member
}

// MemberErrors collects the failures of an operation run on several members.
//
// The zero value is ready to use.
type MemberErrors struct {
	result *multierror.Error
}

// Add records err against member, nil errors are ignored.
func (m *MemberErrors) Add(member string, err error) {
	if err == nil {
		return
	}

	m.result = multierror.Append(m.result, &MemberError{Member: member, Err: err})
	m.result.ErrorFormat = formatMemberErrors
}

// ErrorOrNil returns the collected failures, or nil when there were none.
func (m *MemberErrors) ErrorOrNil() error {
	return m.result.ErrorOrNil()
}

func formatMemberErrors(errs []error) string {
	width := 0

	for _, err := range errs {
		var me *MemberError

		if errors.As(err, &me) {
			width = max(width, len(me.target())+1)
		}
	}

	lines := make([]string, 0, len(errs))

	for _, err := range errs {
		var me *MemberError

		if !errors.As(err, &me) {
			lines = append(lines, " "+err.Error())

			continue
		}

		lines = append(lines, fmt.Sprintf(" %-*s %s", width, me.target()+":", me.Err))
	}

	count := pluralize.NewClient().Pluralize("target", len(lines), true)

	return color.RedString(fmt.Sprintf("%s failed:\n%s", count, strings.Join(lines, "\n")))
}
