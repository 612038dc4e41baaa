// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"
	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc/output"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var interfacesCmdFlags struct {
	output          string
	category        string
	mgmt            bool
	virtualMapping  int
	virtualResource string
}

// interfacesCmd represents the interfaces command.
var interfacesCmd = &cobra.Command{
	Use:     "interfaces",
	Aliases: []string{"interface", "if"},
	Short:   "Manage engine interfaces",
	Long:    ``,
}

// interfacesListCmd represents the interfaces list command.
var interfacesListCmd = &cobra.Command{
	Use:   "list <engine>",
	Short: "List interfaces of a category",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := engine.InterfaceCategory(interfacesCmdFlags.category)
		if !slices.Contains(engine.InterfaceCategories, category) {
			return fmt.Errorf("unknown interface category %q", interfacesCmdFlags.category)
		}

		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			refs, err := e.Interfaces(ctx, category)
			if err != nil {
				return err
			}

			return writeRefs(interfacesCmdFlags.output, refs)
		})
	},
}

// interfacesAddLayer3Cmd represents the interfaces add-layer3 command.
var interfacesAddLayer3Cmd = &cobra.Command{
	Use:   "add-layer3 <engine> <interface-id> <address> <network>",
	Short: "Add a physical interface with a single node address",
	Long:  ``,
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.AddLayer3Interface(ctx, args[1], args[2], args[3], interfacesCmdFlags.mgmt)

			return err
		})
	},
}

// interfacesAddInlineCmd represents the interfaces add-inline command.
var interfacesAddInlineCmd = &cobra.Command{
	Use:   "add-inline <engine> <pair> <logical-interface>",
	Short: "Add an inline interface pair such as 1-2",
	Long:  ``,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.AddInlineInterface(ctx, args[1], args[2])

			return err
		})
	},
}

// interfacesAddCaptureCmd represents the interfaces add-capture command.
var interfacesAddCaptureCmd = &cobra.Command{
	Use:   "add-capture <engine> <interface-id> <logical-interface>",
	Short: "Add a capture interface",
	Long:  ``,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.AddCaptureInterface(ctx, args[1], args[2])

			return err
		})
	},
}

// interfacesDeleteCmd represents the interfaces delete command.
var interfacesDeleteCmd = &cobra.Command{
	Use:   "delete <engine> <name>",
	Short: "Delete a physical interface by name",
	Long:  ``,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.DeletePhysicalInterface(ctx, args[1])

			return err
		})
	},
}

// interfacesAddVLANCmd represents the interfaces add-vlan command.
var interfacesAddVLANCmd = &cobra.Command{
	Use:   "add-vlan <engine> <interface-id> <vlan-id>",
	Short: "Add a VLAN to a physical interface",
	Long:  ``,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		vlanID, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid VLAN id %q: %w", args[2], err)
		}

		var virtualMapping *int

		if cmd.Flags().Changed("virtual-mapping") {
			virtualMapping = pointer.To(interfacesCmdFlags.virtualMapping)
		}

		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			_, err := e.AddVLANToPhysicalInterface(ctx, args[1], vlanID, virtualMapping, interfacesCmdFlags.virtualResource)

			return err
		})
	},
}

func writeRefs(format string, refs []client.ElementRef) error {
	w, err := output.NewWriter(format, os.Stdout)
	if err != nil {
		return err
	}

	if err = w.WriteHeader("NAME", "TYPE", "HREF"); err != nil {
		return err
	}

	for _, ref := range refs {
		if err = w.WriteItem(ref, ref.Name, ref.Type, ref.Href); err != nil {
			return err
		}
	}

	return w.Flush()
}

func init() {
	categories := xslices.Map(engine.InterfaceCategories, func(c engine.InterfaceCategory) string { return string(c) })

	interfacesListCmd.Flags().StringVarP(&interfacesCmdFlags.output, "output", "o", "table", "output mode (table, json, yaml, jsonpath=<template>)")
	interfacesListCmd.RegisterFlagCompletionFunc("output", output.CompleteOutputArg) //nolint:errcheck
	interfacesListCmd.Flags().StringVar(&interfacesCmdFlags.category, "category", string(engine.InterfacesAll), fmt.Sprintf("interface category %v", categories))
	interfacesListCmd.RegisterFlagCompletionFunc("category", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) { //nolint:errcheck
		return categories, cobra.ShellCompDirectiveNoFileComp
	})

	interfacesAddLayer3Cmd.Flags().BoolVar(&interfacesCmdFlags.mgmt, "management", false, "use the address for management traffic")

	interfacesAddVLANCmd.Flags().IntVar(&interfacesCmdFlags.virtualMapping, "virtual-mapping", 0, "interface id inside the virtual engine")
	interfacesAddVLANCmd.Flags().StringVar(&interfacesCmdFlags.virtualResource, "virtual-resource", "", "virtual resource the VLAN is assigned to")

	interfacesCmd.AddCommand(
		interfacesListCmd,
		interfacesAddLayer3Cmd,
		interfacesAddInlineCmd,
		interfacesAddCaptureCmd,
		interfacesDeleteCmd,
		interfacesAddVLANCmd,
	)

	addCommand(interfacesCmd)
}
