// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var exportCmdFlags taskFlags

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export <engine> <file>",
	Short: "Export the engine configuration to a file",
	Long:  ``,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngineTasks(args[0], &exportCmdFlags, func(ctx context.Context, e *engine.Engine) error {
			if err := e.Export(ctx, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "saved %s\n", args[1])

			return nil
		})
	},
}

// snapshotCmd represents the snapshot command.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <engine> <file>",
	Short: "Generate a policy snapshot and save it to a file",
	Long:  ``,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngineTasks(args[0], &exportCmdFlags, func(ctx context.Context, e *engine.Engine) error {
			if err := e.GenerateSnapshot(ctx, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "saved %s\n", args[1])

			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{exportCmd, snapshotCmd} {
		exportCmdFlags.register(cmd.Flags())
		cmd.Flags().MarkHidden("no-wait") //nolint:errcheck

		addCommand(cmd)
	}
}
