// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc/output"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var inspectCmdFlags struct {
	output  string
	members []string
}

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Read engine and member documents",
	Long:  ``,
}

type (
	documentFunc = func(ctx context.Context) (json.RawMessage, error)
	memberFunc   = func(ctx context.Context, member string) ([]engine.MemberDocument, error)
	refsFunc     = func(ctx context.Context) ([]client.ElementRef, error)
)

// Readers select the operation of a loaded engine.
type (
	documentReader func(e *engine.Engine) documentFunc
	memberReader   func(e *engine.Engine) memberFunc
	refsReader     func(e *engine.Engine) refsFunc
)

func documentCommand(use, short string, read documentReader) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <engine>",
		Short: short,
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				doc, err := read(e)(ctx)
				if err != nil {
					return err
				}

				return writeDocuments(structuredFormat(inspectCmdFlags.output), doc)
			})
		},
	}
}

func memberCommand(use, short string, read memberReader) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <engine>",
		Short: short,
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				var docs []any

				err := forMembers(e, readMembers(e, inspectCmdFlags.members), func(member string) error {
					result, err := read(e)(ctx, member)
					for _, doc := range result {
						docs = append(docs, doc)
					}

					return err
				})
				if err != nil {
					return err
				}

				return writeDocuments(structuredFormat(inspectCmdFlags.output), docs...)
			})
		},
	}
}

func refsCommand(use, short string, read refsReader) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <engine>",
		Short: short,
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				refs, err := read(e)(ctx)
				if err != nil {
					return err
				}

				return writeRefs(inspectCmdFlags.output, refs)
			})
		},
	}
}

// structuredFormat maps the table default to YAML for free form documents.
func structuredFormat(format string) string {
	if format == "table" {
		return "yaml"
	}

	return format
}

func writeDocuments(format string, docs ...any) error {
	w, err := output.NewWriter(format, os.Stdout)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if err = w.WriteItem(doc); err != nil {
			return err
		}
	}

	return w.Flush()
}

func init() {
	inspectCmd.PersistentFlags().StringVarP(&inspectCmdFlags.output, "output", "o", "table", "output mode (table, json, yaml, jsonpath=<template>)")
	inspectCmd.RegisterFlagCompletionFunc("output", output.CompleteOutputArg) //nolint:errcheck
	memberFlag(inspectCmd.PersistentFlags(), &inspectCmdFlags.members)

	inspectCmd.AddCommand(
		documentCommand("routing", "Show the routing tree", func(e *engine.Engine) documentFunc { return e.Routing }),
		documentCommand("routing-monitoring", "Show the active routes", func(e *engine.Engine) documentFunc { return e.RoutingMonitoring }),
		documentCommand("antispoofing", "Show the antispoofing tree", func(e *engine.Engine) documentFunc { return e.Antispoofing }),
		documentCommand("alias-resolving", "Show the resolved alias values", func(e *engine.Engine) documentFunc { return e.AliasResolving }),
		memberCommand("appliance-status", "Show the hardware status of members", func(e *engine.Engine) memberFunc { return e.ApplianceStatus }),
		memberCommand("diagnostics", "Show the diagnostic settings of members", func(e *engine.Engine) memberFunc { return e.Diagnostics }),
		memberCommand("certificate-info", "Show the certificate state of members", func(e *engine.Engine) memberFunc { return e.CertificateInfo }),
		refsCommand("nodes", "List engine nodes", func(e *engine.Engine) refsFunc { return e.Nodes }),
		refsCommand("internal-gateway", "List the VPN internal gateways", func(e *engine.Engine) refsFunc { return e.InternalGateway }),
		refsCommand("snapshots", "List policy snapshots", func(e *engine.Engine) refsFunc { return e.Snapshots }),
		refsCommand("virtual-resources", "List virtual resources", func(e *engine.Engine) refsFunc { return e.VirtualResources }),
	)

	addCommand(inspectCmd)
}
