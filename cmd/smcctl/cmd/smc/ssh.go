// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package smc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netsec-ops/smcctl/pkg/smc/engine"
)

// PasswordEnvVar supplies the password of ssh set-password non interactively.
const PasswordEnvVar = "SMC_SSH_PASSWORD"

var sshCmdFlags struct {
	members []string
	comment string
}

// sshCmd represents the ssh command.
var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Manage SSH access to engine members",
	Long:  ``,
}

func sshToggleCommand(use, short string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <engine>",
		Short: short,
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
				return forMembers(e, sshCmdFlags.members, func(member string) error {
					_, err := e.EnableSSH(ctx, member, enable, sshCmdFlags.comment)

					return err
				})
			})
		},
	}
}

// sshPasswordCmd represents the ssh set-password command.
var sshPasswordCmd = &cobra.Command{
	Use:   "set-password <engine>",
	Short: "Change the root password of members",
	Long:  "The password is read from $" + PasswordEnvVar + " or from the first line of stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		return withEngine(args[0], func(ctx context.Context, e *engine.Engine) error {
			return forMembers(e, sshCmdFlags.members, func(member string) error {
				_, err := e.ChangeSSHPassword(ctx, member, password, sshCmdFlags.comment)

				return err
			})
		})
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	if password, ok := os.LookupEnv(PasswordEnvVar); ok && password != "" {
		return password, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "password: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))

		fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("error reading password: %w", err)
		}

		if len(password) == 0 {
			return "", errors.New("password is empty")
		}

		return string(password), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is empty")
	}

	return password, nil
}

func init() {
	memberFlag(sshCmd.PersistentFlags(), &sshCmdFlags.members)
	sshCmd.PersistentFlags().StringVar(&sshCmdFlags.comment, "comment", "", "audit comment")

	sshCmd.AddCommand(
		sshToggleCommand("enable", "Enable the SSH daemon of members", true),
		sshToggleCommand("disable", "Disable the SSH daemon of members", false),
		sshPasswordCmd,
	)

	addCommand(sshCmd)
}
