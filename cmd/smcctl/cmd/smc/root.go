// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package smc implements the engine commands of smcctl.
package smc

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/netsec-ops/smcctl/cmd/smcctl/pkg/global"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

// GlobalArgs is the common arguments for the root command.
var GlobalArgs global.Args

// Commands is a list of commands published by the package.
var Commands []*cobra.Command

func addCommand(cmd *cobra.Command) {
	Commands = append(Commands, cmd)
}

// taskFlags are shared by commands that start server side tasks.
type taskFlags struct {
	noWait     bool
	noMessages bool
	interval   time.Duration
	timeout    time.Duration
}

func (f *taskFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&f.noWait, "no-wait", false, "print the follower link and return without waiting for the task")
	flags.BoolVar(&f.noMessages, "quiet", false, "do not print task progress messages")
	flags.DurationVar(&f.interval, "poll-interval", task.DefaultInterval, "interval between task status polls")
	flags.DurationVar(&f.timeout, "wait-timeout", 0, "give up waiting for the task after this long, zero waits forever")
}

func (f *taskFlags) options() []task.Option {
	opts := []task.Option{
		task.WithInterval(f.interval),
		task.WithTimeout(f.timeout),
		task.WithWait(!f.noWait),
	}

	if f.noMessages {
		opts = append(opts, task.WithoutMessages())
	}

	return opts
}

// withEngine loads the engine named by the first argument.
func withEngine(name string, action func(context.Context, *engine.Engine) error) error {
	return GlobalArgs.WithEngine(name, nil, action)
}

// withEngineTasks loads the engine and applies task flags to its async operations.
func withEngineTasks(name string, flags *taskFlags, action func(context.Context, *engine.Engine) error) error {
	return GlobalArgs.WithEngine(name, flags.options(), action)
}
