// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package helpers_test

import (
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/cmd/smcctl/pkg/helpers"
)

func TestMemberErrors(t *testing.T) {
	color.NoColor = true

	var errs helpers.MemberErrors

	require.NoError(t, errs.ErrorOrNil())

	errNotFound := errors.New("not found")

	errs.Add("node1", errNotFound)
	errs.Add("node2", nil)
	assert.Equal(t, "1 target failed:\n node1: not found", errs.ErrorOrNil().Error())

	errs.Add("", errors.New("timeout"))

	err := errs.ErrorOrNil()
	assert.Equal(t, "2 targets failed:\n node1:  not found\n engine: timeout", err.Error())
	assert.ErrorIs(t, err, errNotFound)

	var me *helpers.MemberError

	require.ErrorAs(t, err, &me)
	assert.Equal(t, "node1", me.Member)
}
