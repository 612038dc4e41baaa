// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

// routeCmd represents the route command.
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Manage engine routes",
	Long:  ``,
}

// routeAddCmd represents the route add command.
var routeAddCmd = &cobra.Command{
	Use:   "add <engine> <gateway> <network>",
	Short: "Add a static route through gateway",
	Long:  ``,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			if _, err := e.AddRoute(ctx, args[1], args[2]); err != nil {
				return fmt.Errorf("error adding route: %w", err)
			}

			return nil
		})
	},
}

var blacklistCmdFlags struct {
	duration time.Duration
}

// blacklistCmd represents the blacklist command.
var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage the engine blacklist",
	Long:  ``,
}

// blacklistAddCmd represents the blacklist add command.
var blacklistAddCmd = &cobra.Command{
	Use:   "add <engine> <source> <destination>",
	Short: "Blacklist traffic from source to destination",
	Long:  ``,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.BlacklistAdd(ctx, args[1], args[2], blacklistCmdFlags.duration)

			return err
		})
	},
}

// blacklistFlushCmd represents the blacklist flush command.
var blacklistFlushCmd = &cobra.Command{
	Use:   "flush <engine>",
	Short: "Remove every blacklist entry",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.BlacklistFlush(ctx)

			return err
		})
	},
}

func init() {
	routeCmd.AddCommand(routeAddCmd)

	blacklistAddCmd.Flags().DurationVar(&blacklistCmdFlags.duration, "duration", engine.DefaultBlacklistDuration, "how long the entry stays active")
	blacklistCmd.AddCommand(blacklistAddCmd, blacklistFlushCmd)

	addCommand(routeCmd)
	addCommand(blacklistCmd)
}
