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

var supportCmdFlags struct {
	member  string
	options engine.SGInfoOptions
}

// supportCmd represents the support command.
var supportCmd = &cobra.Command{
	Use:   "support <engine> <file>",
	Short: "Download the support information archive of a member",
	Long:  ``,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			if err := e.SGInfo(ctx, supportCmdFlags.member, args[1], supportCmdFlags.options); err != nil {
				return fmt.Errorf("error collecting support information: %w", err)
			}

			fmt.Fprintf(os.Stderr, "saved %s\n", args[1])

			return nil
		})
	},
}

func init() {
	supportCmd.Flags().StringVarP(&supportCmdFlags.member, "member", "m", "", "cluster member to collect from")
	supportCmd.Flags().BoolVar(&supportCmdFlags.options.IncludeCoreFiles, "include-core-files", false, "include core dumps")
	supportCmd.Flags().BoolVar(&supportCmdFlags.options.IncludeSlapcatOutput, "include-slapcat-output", false, "include the user database dump")

	addCommand(supportCmd)
}
