// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/pkg/cli"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var createCmdFlags struct {
	mgmtAddress      string
	mgmtNetwork      string
	mgmtInterface    string
	logServer        string
	dns              []string
	inlineInterface  string
	logicalInterface string
	dryRun           bool

	masterEngine      string
	virtualResource   string
	interfaces        []string
	outgoingInterface string
}

// createCmd represents the create command.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create single and virtual engines",
	Long:  ``,
}

func createSpec(name string) engine.Spec {
	return engine.Spec{
		Name:          name,
		MgmtAddress:   createCmdFlags.mgmtAddress,
		MgmtNetwork:   createCmdFlags.mgmtNetwork,
		MgmtInterface: createCmdFlags.mgmtInterface,
		LogServerRef:  createCmdFlags.logServer,
		DNS:           createCmdFlags.dns,
	}
}

func createInlineSpec(name string) engine.InlineSpec {
	return engine.InlineSpec{
		Spec:             createSpec(name),
		InlineInterface:  createCmdFlags.inlineInterface,
		LogicalInterface: createCmdFlags.logicalInterface,
	}
}

func printDraft(draft *engine.Draft) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")

	return enc.Encode(draft)
}

// createLayer3Cmd represents the create layer3 command.
var createLayer3Cmd = &cobra.Command{
	Use:   "layer3 <name>",
	Short: "Create a single layer 3 firewall",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := createSpec(args[0])

		if createCmdFlags.dryRun {
			return printDraft(engine.BuildLayer3Firewall(spec))
		}

		return GlobalArgs.WithClient(func(ctx context.Context, c *client.Client) error {
			fw, err := engine.CreateLayer3Firewall(ctx, c, spec, engine.WithLogger(GlobalArgs.Logger()))
			if err != nil {
				return fmt.Errorf("error creating engine %q: %w", spec.Name, err)
			}

			return cli.RenderEngine(fw.Engine, os.Stdout)
		})
	},
}

// createLayer2Cmd represents the create layer2 command.
var createLayer2Cmd = &cobra.Command{
	Use:   "layer2 <name>",
	Short: "Create a single layer 2 firewall",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := createInlineSpec(args[0])

		if createCmdFlags.dryRun {
			return printInlineDraft(spec, engine.BuildLayer2Firewall)
		}

		return GlobalArgs.WithClient(func(ctx context.Context, c *client.Client) error {
			fw, err := engine.CreateLayer2Firewall(ctx, c, spec, engine.WithLogger(GlobalArgs.Logger()))
			if err != nil {
				return fmt.Errorf("error creating engine %q: %w", spec.Name, err)
			}

			return cli.RenderEngine(fw.Engine, os.Stdout)
		})
	},
}

// createIPSCmd represents the create ips command.
var createIPSCmd = &cobra.Command{
	Use:   "ips <name>",
	Short: "Create a single IPS engine",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := createInlineSpec(args[0])

		if createCmdFlags.dryRun {
			return printInlineDraft(spec, engine.BuildIPS)
		}

		return GlobalArgs.WithClient(func(ctx context.Context, c *client.Client) error {
			ips, err := engine.CreateIPS(ctx, c, spec, engine.WithLogger(GlobalArgs.Logger()))
			if err != nil {
				return fmt.Errorf("error creating engine %q: %w", spec.Name, err)
			}

			return cli.RenderEngine(ips.Engine, os.Stdout)
		})
	},
}

// createVirtualCmd represents the create virtual command.
var createVirtualCmd = &cobra.Command{
	Use:   "virtual <name>",
	Short: "Create a layer 3 virtual engine on a master engine",
	Long: `Interfaces are given as <id>=<address>,<network>, for example
"--interface 0=172.16.0.1,172.16.0.0/24". Interface ids start at 0
inside the virtual engine.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := createVirtualSpec(args[0])
		if err != nil {
			return err
		}

		if createCmdFlags.dryRun {
			return printDraft(engine.BuildLayer3VirtualEngine(spec, "<virtual_resource "+spec.VirtualResource+">"))
		}

		return GlobalArgs.WithClient(func(ctx context.Context, c *client.Client) error {
			ve, err := engine.CreateLayer3VirtualEngine(ctx, c, spec, engine.WithLogger(GlobalArgs.Logger()))
			if err != nil {
				return fmt.Errorf("error creating engine %q: %w", spec.Name, err)
			}

			return cli.RenderEngine(ve.Engine, os.Stdout)
		})
	},
}

func createVirtualSpec(name string) (engine.VirtualSpec, error) {
	spec := engine.VirtualSpec{
		Name:              name,
		MasterEngine:      createCmdFlags.masterEngine,
		VirtualResource:   createCmdFlags.virtualResource,
		DNS:               createCmdFlags.dns,
		OutgoingInterface: createCmdFlags.outgoingInterface,
	}

	for _, arg := range createCmdFlags.interfaces {
		vi, err := parseVirtualInterface(arg)
		if err != nil {
			return engine.VirtualSpec{}, err
		}

		spec.Interfaces = append(spec.Interfaces, vi)
	}

	return spec, nil
}

func parseVirtualInterface(arg string) (engine.VirtualInterface, error) {
	id, addressing, ok := strings.Cut(arg, "=")
	if !ok || id == "" {
		return engine.VirtualInterface{}, fmt.Errorf("invalid interface %q, expected <id>=<address>,<network>", arg)
	}

	address, network, ok := strings.Cut(addressing, ",")
	if !ok || address == "" || network == "" {
		return engine.VirtualInterface{}, fmt.Errorf("invalid interface %q, expected <id>=<address>,<network>", arg)
	}

	return engine.VirtualInterface{InterfaceID: id, Address: address, Network: network}, nil
}

// printInlineDraft renders the request without resolving the logical interface.
func printInlineDraft(spec engine.InlineSpec, build func(engine.InlineSpec, string) (*engine.Draft, error)) error {
	logical := spec.LogicalInterface
	if logical == "" {
		logical = engine.DefaultLogicalInterface
	}

	draft, err := build(spec, "<logical_interface "+logical+">")
	if err != nil {
		return err
	}

	return printDraft(draft)
}

func init() {
	flags := createCmd.PersistentFlags()
	flags.StringSliceVar(&createCmdFlags.dns, "dns", nil, "DNS servers in rank order")
	flags.BoolVar(&createCmdFlags.dryRun, "dry-run", false, "print the creation request instead of sending it")

	for _, cmd := range []*cobra.Command{createLayer3Cmd, createLayer2Cmd, createIPSCmd} {
		cmd.Flags().StringVar(&createCmdFlags.mgmtAddress, "mgmt-address", "", "management address")
		cmd.Flags().StringVar(&createCmdFlags.mgmtNetwork, "mgmt-network", "", "management network in CIDR notation")
		cmd.Flags().StringVar(&createCmdFlags.mgmtInterface, "mgmt-interface", engine.DefaultMgmtInterface, "management interface id")
		cmd.Flags().StringVar(&createCmdFlags.logServer, "log-server", "", "log server locator, the first log server by default")

		cmd.MarkFlagRequired("mgmt-address") //nolint:errcheck
		cmd.MarkFlagRequired("mgmt-network") //nolint:errcheck
	}

	for _, cmd := range []*cobra.Command{createLayer2Cmd, createIPSCmd} {
		cmd.Flags().StringVar(&createCmdFlags.inlineInterface, "inline-interface", engine.DefaultInlineInterface, "inline interface pair")
		cmd.Flags().StringVar(&createCmdFlags.logicalInterface, "logical-interface", engine.DefaultLogicalInterface, "logical interface of the inline pair")
	}

	createVirtualCmd.Flags().StringVar(&createCmdFlags.masterEngine, "master", "", "master engine hosting the virtual resource")
	createVirtualCmd.Flags().StringVar(&createCmdFlags.virtualResource, "virtual-resource", "", "virtual resource of the master engine")
	createVirtualCmd.Flags().StringArrayVar(&createCmdFlags.interfaces, "interface", nil, "interface as <id>=<address>,<network>, may be repeated")
	createVirtualCmd.Flags().StringVar(&createCmdFlags.outgoingInterface, "outgoing-interface", engine.DefaultMgmtInterface, "interface id used for outgoing and authentication traffic")

	createVirtualCmd.MarkFlagRequired("master")           //nolint:errcheck
	createVirtualCmd.MarkFlagRequired("virtual-resource") //nolint:errcheck

	createCmd.AddCommand(createLayer3Cmd, createLayer2Cmd, createIPSCmd, createVirtualCmd)

	addCommand(createCmd)
}
