// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd wires the smcctl command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/mgmt"
	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:               "smcctl",
	Short:             "A CLI for managing firewall and IPS engines through the SMC API",
	Long:              ``,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())

		errorString := err.Error()
		if strings.Contains(errorString, "arg(s)") || strings.Contains(errorString, "flag") || strings.Contains(errorString, "command") {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
	}

	return err
}

func init() {
	const (
		smcGroup  = "smc"
		mgmtGroup = "mgmt"
	)

	rootCmd.AddGroup(&cobra.Group{ID: smcGroup, Title: "Manage engines on a Management Server:"})
	rootCmd.AddGroup(&cobra.Group{ID: mgmtGroup, Title: "Manage the client configuration:"})

	smc.GlobalArgs.AddFlags(rootCmd.PersistentFlags())

	for _, cmd := range smc.Commands {
		cmd.GroupID = smcGroup
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range mgmt.Commands {
		cmd.GroupID = mgmtGroup
		rootCmd.AddCommand(cmd)
	}
}
