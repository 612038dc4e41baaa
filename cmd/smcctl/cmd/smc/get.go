// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"context"
	"os"

	"github.com/siderolabs/gen/xslices"
	"github.com/spf13/cobra"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc/output"
	"github.com/netsec-ops/smcctl/pkg/cli"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

var getCmdFlags struct {
	output string
}

type memberSummary struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	NodeID int    `json:"nodeid"`
}

type engineSummary struct {
	Name         string            `json:"name"`
	Href         string            `json:"href"`
	ClusterMode  bool              `json:"cluster_mode"`
	Version      string            `json:"engine_version,omitempty"`
	LogServerRef string            `json:"log_server_ref,omitempty"`
	DNS          []engine.DNSEntry `json:"domain_server_address"`
	Members      []memberSummary   `json:"nodes"`
}

func summarize(e *engine.Engine) engineSummary {
	return engineSummary{
		Name:         e.Name(),
		Href:         e.Href(),
		ClusterMode:  e.ClusterMode(),
		Version:      e.Version(),
		LogServerRef: e.LogServerRef(),
		DNS:          e.DNS(),
		Members: xslices.Map(e.Members().All(), func(m *engine.Member) memberSummary {
			return memberSummary{Name: m.Name, Type: m.Type, NodeID: m.NodeID}
		}),
	}
}

// getCmd represents the get command.
var getCmd = &cobra.Command{
	Use:   "get <engine>",
	Short: "Show an engine and its members",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			if getCmdFlags.output == "table" {
				return cli.RenderEngine(e, os.Stdout)
			}

			w, err := output.NewWriter(getCmdFlags.output, os.Stdout)
			if err != nil {
				return err
			}

			if err = w.WriteItem(summarize(e)); err != nil {
				return err
			}

			return w.Flush()
		})
	},
}

var statusCmdFlags struct {
	output  string
	members []string
}

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status <engine>",
	Short: "Show the status of engine members",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			var statuses []engine.NodeStatus

			err := forMembers(e, readMembers(e, statusCmdFlags.members), func(member string) error {
				s, err := e.Status(ctx, member)
				statuses = append(statuses, s...)

				return err
			})
			if err != nil {
				return err
			}

			if statusCmdFlags.output == "table" {
				return cli.RenderStatuses(statuses, os.Stdout)
			}

			w, err := output.NewWriter(statusCmdFlags.output, os.Stdout)
			if err != nil {
				return err
			}

			for _, s := range statuses {
				if err = w.WriteItem(s, s.Member, s.Status); err != nil {
					return err
				}
			}

			return w.Flush()
		})
	},
}

func init() {
	getCmd.Flags().StringVarP(&getCmdFlags.output, "output", "o", "table", "output mode (table, json, yaml, jsonpath=<template>)")
	getCmd.RegisterFlagCompletionFunc("output", output.CompleteOutputArg) //nolint:errcheck

	statusCmd.Flags().StringVarP(&statusCmdFlags.output, "output", "o", "table", "output mode (table, json, yaml, jsonpath=<template>)")
	statusCmd.RegisterFlagCompletionFunc("output", output.CompleteOutputArg) //nolint:errcheck
	statusCmd.Flags().StringSliceVarP(&statusCmdFlags.members, "member", "m", nil, "members to query, all members by default")

	addCommand(getCmd)
	addCommand(statusCmd)
}
