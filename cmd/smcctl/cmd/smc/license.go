// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var licenseCmdFlags struct {
	members []string
}

// licenseCmd represents the license command.
var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage member licenses",
	Long:  ``,
}

func licenseCommand(use, short string, args cobra.PositionalArgs, run func(context.Context, *engine.Engine, string, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  ``,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				return forMembers(e, licenseCmdFlags.members, func(member string) error {
					return run(ctx, e, member, args[1:])
				})
			})
		},
	}
}

func init() {
	memberFlag(licenseCmd.PersistentFlags(), &licenseCmdFlags.members)

	licenseCmd.AddCommand(
		licenseCommand("fetch <engine>", "Fetch a license from the license server", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, member string, _ []string) error {
				_, err := e.FetchLicense(ctx, member)

				return err
			}),
		licenseCommand("bind <engine> <license-id>", "Bind a license to members", cobra.ExactArgs(2),
			func(ctx context.Context, e *engine.Engine, member string, args []string) error {
				_, err := e.BindLicense(ctx, member, args[0])

				return err
			}),
		licenseCommand("unbind <engine>", "Unbind the license of members", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, member string, _ []string) error {
				_, err := e.UnbindLicense(ctx, member)

				return err
			}),
		licenseCommand("cancel-unbind <engine>", "Cancel a pending license unbind", cobra.ExactArgs(1),
			func(ctx context.Context, e *engine.Engine, member string, _ []string) error {
				_, err := e.CancelUnbindLicense(ctx, member)

				return err
			}),
	)

	addCommand(licenseCmd)
}
