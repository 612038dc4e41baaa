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

var virtualResourceCmdFlags engine.VirtualResource

// virtualResourceCmd represents the virtual-resource command.
var virtualResourceCmd = &cobra.Command{
	Use:     "virtual-resource",
	Aliases: []string{"vr"},
	Short:   "Manage virtual resources of master engines",
	Long:    ``,
}

// virtualResourceAddCmd represents the virtual-resource add command.
var virtualResourceAddCmd = &cobra.Command{
	Use:   "add <engine> <name>",
	Short: "Create a virtual resource",
	Long:  ``,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vr := virtualResourceCmdFlags
		vr.Name = args[1]

		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			href, err := e.VirtualResourceAdd(ctx, vr)
			if err != nil {
				return fmt.Errorf("error creating virtual resource %q: %w", vr.Name, err)
			}

			fmt.Fprintln(os.Stdout, href)

			return nil
		})
	},
}

func init() {
	flags := virtualResourceAddCmd.Flags()
	flags.IntVar(&virtualResourceCmdFlags.VFWID, "vfw-id", 1, "virtual firewall id")
	flags.StringVar(&virtualResourceCmdFlags.Domain, "domain", engine.DefaultDomain, "administrative domain")
	flags.BoolVar(&virtualResourceCmdFlags.ShowMasterNIC, "show-master-nic", false, "show master engine interface ids in the virtual engine")
	flags.IntVar(&virtualResourceCmdFlags.ConnectionLimit, "connection-limit", 0, "connection limit, zero is unlimited")

	virtualResourceCmd.AddCommand(virtualResourceAddCmd)

	addCommand(virtualResourceCmd)
}
