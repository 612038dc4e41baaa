// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var powerCmdFlags struct {
	members []string
	comment string
}

type powerAction struct {
	use   string
	short string
	run   func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error)
}

var powerActions = []powerAction{
	{
		use:   "online",
		short: "Command members online",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.GoOnline(ctx, member, comment)
		},
	},
	{
		use:   "offline",
		short: "Command members offline",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.GoOffline(ctx, member, comment)
		},
	},
	{
		use:   "standby",
		short: "Command members to standby",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.GoStandby(ctx, member, comment)
		},
	},
	{
		use:   "lock-online",
		short: "Lock members online",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.LockOnline(ctx, member, comment)
		},
	},
	{
		use:   "lock-offline",
		short: "Lock members offline",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.LockOffline(ctx, member, comment)
		},
	},
	{
		use:   "reboot",
		short: "Reboot members",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.Reboot(ctx, member, comment)
		},
	},
	{
		use:   "reset-user-db",
		short: "Reset the user database of members",
		run: func(ctx context.Context, e *engine.Engine, member, comment string) (*client.Result, error) {
			return e.ResetUserDB(ctx, member, comment)
		},
	},
	{
		use:   "time-sync",
		short: "Synchronize the clock of members",
		run: func(ctx context.Context, e *engine.Engine, member, _ string) (*client.Result, error) {
			return e.TimeSync(ctx, member)
		},
	},
}

// powerCmd represents the power command.
var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Change the operating state of engine members",
	Long:  ``,
}

func powerCommand(action powerAction) *cobra.Command {
	return &cobra.Command{
		Use:   action.use + " <engine>",
		Short: action.short,
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				return forMembers(e, powerCmdFlags.members, func(member string) error {
					if _, err := action.run(ctx, e, member, powerCmdFlags.comment); err != nil {
						return fmt.Errorf("error executing %s: %w", action.use, err)
					}

					return nil
				})
			})
		},
	}
}

func init() {
	memberFlag(powerCmd.PersistentFlags(), &powerCmdFlags.members)
	powerCmd.PersistentFlags().StringVar(&powerCmdFlags.comment, "comment", "", "audit comment")

	for _, action := range powerActions {
		powerCmd.AddCommand(powerCommand(action))
	}

	addCommand(powerCmd)
}
