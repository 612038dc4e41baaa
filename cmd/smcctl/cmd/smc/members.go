// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"github.com/spf13/pflag"

	"github.com/netsec-ops/smcctl/cmd/smcctl/pkg/helpers"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

func memberFlag(flags *pflag.FlagSet, members *[]string) {
	flags.StringSliceVarP(members, "member", "m", nil, "cluster members to address, ignored on single engines")
}

// readMembers defaults a read to every member of a cluster.
func readMembers(e *engine.Engine, members []string) []string {
	if len(members) == 0 && e.ClusterMode() {
		return e.Members().Names()
	}

	return members
}

// forMembers runs fn once per member of a cluster, and once without a member
// on single engines or when no member is given.
//
// Errors of individual members are aggregated.
func forMembers(e *engine.Engine, members []string, fn func(member string) error) error {
	if len(members) == 0 || !e.ClusterMode() {
		members = []string{""}
	}

	var errs helpers.MemberErrors

	for _, member := range members {
		errs.Add(member, fn(member))
	}

	return errs.ErrorOrNil()
}
