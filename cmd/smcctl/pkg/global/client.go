// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package global provides global flags for smcctl.
package global

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netsec-ops/smcctl/pkg/cli"
	"github.com/netsec-ops/smcctl/pkg/logging"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	clientconfig "github.com/netsec-ops/smcctl/pkg/smc/client/config"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

// Args is a context for the smcctl command line client.
type Args struct {
	SMCConfig  string
	CmdContext string
	Endpoint   string
	Timeout    time.Duration
	Verbosity  int
	LogFormat  string

	logger *zap.Logger
}

// AddFlags registers the global flags on flags.
func (c *Args) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.SMCConfig, "smcconfig", "", fmt.Sprintf("the path to the smcctl configuration file, defaults to $%s or ~/%s/%s", clientconfig.EnvVar, clientconfig.Dir, clientconfig.Filename))
	flags.StringVar(&c.CmdContext, "context", "", "context to be used in command")
	flags.StringVarP(&c.Endpoint, "endpoint", "e", "", "override the management server endpoint of the context")
	flags.DurationVar(&c.Timeout, "request-timeout", 0, "timeout of a single API request, zero uses the context setting")
	flags.CountVarP(&c.Verbosity, "verbose", "v", "increase log verbosity, repeat for debug logs")
	flags.StringVar(&c.LogFormat, "log-format", "console", "log format (console, json)")
}

// Logger returns the logger configured by the verbosity flags.
func (c *Args) Logger() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}

	logger, err := logging.CLI(os.Stderr, c.Verbosity, c.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s, falling back to console logs\n", err)

		logger, _ = logging.CLI(os.Stderr, c.Verbosity, "console") //nolint:errcheck
	}

	c.logger = logger

	return c.logger
}

// OpenConfig opens the configuration file selected by the flags.
func (c *Args) OpenConfig() (*clientconfig.Config, string, error) {
	path := c.SMCConfig

	if path == "" {
		p, err := clientconfig.FirstValidPath()
		if err != nil {
			return nil, "", err
		}

		path = p.Path
	}

	cfg, err := clientconfig.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open config file %q: %w", path, err)
	}

	return cfg, path, nil
}

// WithClient wraps common code to initialize a logged in SMC client and provide cancellable context.
func (c *Args) WithClient(action func(context.Context, *client.Client) error) error {
	return cli.WithContext(
		context.Background(), func(ctx context.Context) error {
			cfg, _, err := c.OpenConfig()
			if err != nil {
				return err
			}

			opts := []client.OptionFunc{
				client.WithConfig(cfg),
				client.WithLogger(c.Logger().With(logging.Component("client"))),
			}

			if c.CmdContext != "" {
				opts = append(opts, client.WithContextName(c.CmdContext))
			}

			if c.Endpoint != "" {
				opts = append(opts, client.WithEndpoint(c.Endpoint))
			}

			if c.Timeout > 0 {
				opts = append(opts, client.WithTimeout(c.Timeout))
			}

			cl, err := client.New(opts...)
			if err != nil {
				return fmt.Errorf("error constructing client: %w", err)
			}

			if err = cl.Login(ctx); err != nil {
				return err
			}

			defer func() {
				// the session outlives a canceled command context
				if logoutErr := cl.Logout(context.WithoutCancel(ctx)); logoutErr != nil {
					c.Logger().Warn("logout failed", zap.Error(logoutErr))
				}
			}()

			return action(ctx, cl)
		},
	)
}

// WithEngine builds upon WithClient to load the named engine.
func (c *Args) WithEngine(name string, taskOpts []task.Option, action func(context.Context, *engine.Engine) error) error {
	return c.WithClient(func(ctx context.Context, cl *client.Client) error {
		e := engine.New(cl,
			engine.WithLogger(c.Logger().With(logging.Component("engine"))),
			engine.WithTaskOptions(taskOpts...),
		)

		if err := e.Load(ctx, name); err != nil {
			return err
		}

		return action(ctx, e)
	})
}
