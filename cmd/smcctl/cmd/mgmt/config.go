// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mgmt implements the offline configuration commands of smcctl.
package mgmt

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc"
	clientconfig "github.com/netsec-ops/smcctl/pkg/smc/client/config"
)

// Commands is a list of commands published by the package.
var Commands []*cobra.Command

func addCommand(cmd *cobra.Command) {
	Commands = append(Commands, cmd)
}

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the client configuration file",
	Long:  ``,
}

// configContextCmd represents the config context command.
var configContextCmd = &cobra.Command{
	Use:   "context <context>",
	Short: "Set the current context",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateConfig(func(c *clientconfig.Config) error {
			if _, ok := c.Contexts[args[0]]; !ok {
				return fmt.Errorf("context %q is not defined, known contexts: %v", args[0], c.ContextNames())
			}

			c.Context = args[0]

			return nil
		})
	},
}

var configAddCmdFlags struct {
	clientconfig.Context
}

// configAddCmd represents the config add command.
var configAddCmd = &cobra.Command{
	Use:   "add <context>",
	Short: "Add or replace a context",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		newContext := configAddCmdFlags.Context

		if err := newContext.Validate(); err != nil {
			return err
		}

		return updateConfig(func(c *clientconfig.Config) error {
			c.Contexts[args[0]] = &newContext

			if c.Context == "" {
				c.Context = args[0]
			}

			return nil
		})
	},
}

// configRemoveCmd represents the config remove command.
var configRemoveCmd = &cobra.Command{
	Use:     "remove <context>",
	Aliases: []string{"rm"},
	Short:   "Remove a context",
	Long:    ``,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateConfig(func(c *clientconfig.Config) error {
			if _, ok := c.Contexts[args[0]]; !ok {
				return fmt.Errorf("context %q is not defined", args[0])
			}

			delete(c.Contexts, args[0])

			if c.Context == args[0] {
				c.Context = ""
			}

			return nil
		})
	},
}

// configMergeCmd represents the config merge command.
var configMergeCmd = &cobra.Command{
	Use:   "merge <from>",
	Short: "Merge additional contexts from another client configuration file",
	Long:  "Contexts with the same name are renamed while merging configs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secondConfig, err := clientconfig.Open(args[0])
		if err != nil {
			return err
		}

		return updateConfig(func(c *clientconfig.Config) error {
			for _, rename := range c.Merge(secondConfig) {
				fmt.Fprintf(os.Stderr, "renamed context %s\n", rename.String())
			}

			return nil
		})
	},
}

// configContextsCmd represents the config contexts command.
var configContextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "List defined contexts",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := smc.GlobalArgs.OpenConfig()
		if err != nil {
			return err
		}

		return renderContexts(c, os.Stdout)
	},
}

// configInfoCmd represents the config info command.
var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the current context",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, err := smc.GlobalArgs.OpenConfig()
		if err != nil {
			return err
		}

		name := smc.GlobalArgs.CmdContext
		if name == "" {
			name = c.Context
		}

		context, err := c.CurrentContext(name)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

		fmt.Fprintf(w, "CONFIG\t%s\n", path)
		fmt.Fprintf(w, "CONTEXT\t%s\n", name)
		fmt.Fprintf(w, "ENDPOINT\t%s\n", context.Endpoint)
		fmt.Fprintf(w, "API VERSION\t%s\n", context.Version())
		fmt.Fprintf(w, "DOMAIN\t%s\n", valueOrDefault(context.Domain))
		fmt.Fprintf(w, "TIMEOUT\t%s\n", valueOrDefault(durationString(context.Timeout)))
		fmt.Fprintf(w, "INSECURE\t%t\n", context.Insecure)

		return w.Flush()
	},
}

func renderContexts(c *clientconfig.Config, output io.Writer) error {
	w := tabwriter.NewWriter(output, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, "CURRENT\tNAME\tENDPOINT\tDOMAIN")

	for _, name := range c.ContextNames() {
		current := ""
		if name == c.Context {
			current = color.GreenString("*")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, c.Contexts[name].Endpoint, valueOrDefault(c.Contexts[name].Domain))
	}

	return w.Flush()
}

func updateConfig(update func(*clientconfig.Config) error) error {
	c, path, err := smc.GlobalArgs.OpenConfig()
	if err != nil {
		return err
	}

	if err = update(c); err != nil {
		return err
	}

	if err = c.Save(path); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}

func valueOrDefault(s string) string {
	if s == "" {
		return "<default>"
	}

	return s
}

func durationString(d time.Duration) string {
	if d == 0 {
		return ""
	}

	return d.String()
}

func init() {
	flags := configAddCmd.Flags()
	flags.StringVar(&configAddCmdFlags.Endpoint, "endpoint", "", "management server URL, such as https://smc.example.com:8082")
	flags.StringVar(&configAddCmdFlags.APIKey, "api-key", "", "API client authentication key")
	flags.StringVar(&configAddCmdFlags.APIVersion, "api-version", "", fmt.Sprintf("API version, %s by default", clientconfig.DefaultAPIVersion))
	flags.StringVar(&configAddCmdFlags.Domain, "domain", "", "administrative domain to log in to")
	flags.DurationVar(&configAddCmdFlags.Timeout, "timeout", 0, "request timeout")
	flags.StringVar(&configAddCmdFlags.CACert, "ca-cert", "", "path to the CA certificate of the server")
	flags.BoolVar(&configAddCmdFlags.Insecure, "insecure", false, "skip server certificate verification")

	configCmd.AddCommand(
		configContextCmd,
		configAddCmd,
		configRemoveCmd,
		configMergeCmd,
		configContextsCmd,
		configInfoCmd,
	)

	addCommand(configCmd)
}
