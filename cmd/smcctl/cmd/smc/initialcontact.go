// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var initialContactCmdFlags struct {
	member  string
	options engine.InitialContactOptions
}

// initialContactCmd represents the initial-contact command.
var initialContactCmd = &cobra.Command{
	Use:   "initial-contact <engine> [<file>]",
	Short: "Generate the initial configuration of a member",
	Long:  `Without a file the configuration is written to stdout.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initialContactCmdFlags.options

		if len(args) > 1 {
			opts.Filename = args[1]
		}

		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			cfg, err := e.InitialContact(ctx, initialContactCmdFlags.member, opts)
			if err != nil {
				return err
			}

			if opts.Filename == "" {
				_, err = os.Stdout.Write(cfg)
			}

			return err
		})
	},
}

func init() {
	flags := initialContactCmd.Flags()
	flags.StringVarP(&initialContactCmdFlags.member, "member", "m", "", "cluster member to configure")
	flags.BoolVar(&initialContactCmdFlags.options.EnableSSH, "enable-ssh", false, "enable SSH on the member")
	flags.StringVar(&initialContactCmdFlags.options.TimeZone, "time-zone", "", "time zone of the member")
	flags.StringVar(&initialContactCmdFlags.options.Keyboard, "keyboard", "", "keyboard layout of the member")
	flags.BoolVar(&initialContactCmdFlags.options.InstallOnServer, "install-on-server", false, "keep the configuration on the management server")

	addCommand(initialContactCmd)
}
