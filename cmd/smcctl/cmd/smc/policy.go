// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/cli"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

var policyCmdFlags taskFlags

// policyCmd represents the policy command.
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Install policy on engines",
	Long:  ``,
}

// policyRefreshCmd represents the policy refresh command.
var policyRefreshCmd = &cobra.Command{
	Use:   "refresh <engine>",
	Short: "Reinstall the current policy",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngineTasks(args[0], &policyCmdFlags, func(ctx context.Context, e *engine.Engine) error {
			f, err := e.Refresh(ctx)
			if err != nil {
				return err
			}

			return printTask(ctx, f)
		})
	},
}

// policyUploadCmd represents the policy upload command.
var policyUploadCmd = &cobra.Command{
	Use:   "upload <engine> [<policy>]",
	Short: "Upload a policy, the installed one when no policy is named",
	Long:  ``,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var policy string

		if len(args) > 1 {
			policy = args[1]
		}

		return withEngineTasks(args[0], &policyCmdFlags, func(ctx context.Context, e *engine.Engine) error {
			f, err := e.Upload(ctx, policy)
			if err != nil {
				return err
			}

			return printTask(ctx, f)
		})
	},
}

// followCmd represents the follow command.
var followCmd = &cobra.Command{
	Use:   "follow <follower>",
	Short: "Attach to a running task by its follower link",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GlobalArgs.WithClient(func(ctx context.Context, c *client.Client) error {
			opts := append(policyCmdFlags.options(), task.WithLogger(GlobalArgs.Logger()))

			return printTask(ctx, task.Follow(c, args[0], opts...))
		})
	},
}

func printTask(ctx context.Context, f *task.Follower) error {
	result, err := cli.RenderTaskEvents(ctx, f, os.Stdout)
	if err != nil {
		return err
	}

	if result != "" && result != f.Href() {
		fmt.Fprintf(os.Stdout, "result: %s\n", result)
	}

	return nil
}

func init() {
	policyCmdFlags.register(policyCmd.PersistentFlags())
	policyCmdFlags.register(followCmd.Flags())

	policyCmd.AddCommand(policyRefreshCmd, policyUploadCmd)

	addCommand(policyCmd)
	addCommand(followCmd)
}
