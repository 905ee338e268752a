package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/acompanha/acompanha/internal/users"
	"github.com/spf13/cobra"
)

func newSeedUserCommand(cc *cliConfig) *cobra.Command {
	var email, password string
	var reset bool
	var cost int
	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create an admin user, or reset its password with --reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = cc.cfg.Admin.Email
			}
			if password == "" {
				password = cc.cfg.Admin.Password
			}
			repo, _, err := cc.repo()
			if err != nil {
				return err
			}
			svc := users.NewService(repo).WithCost(cost)
			if reset {
				if err := svc.SetPassword(cmd.Context(), email, password); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
				return err
			}
			created, err := svc.EnsureAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if !created {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists\n", email)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "admin user created: %s\n", email)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().BoolVar(&reset, "reset", false, "replace the password of an existing user")
	cmd.Flags().IntVar(&cost, "cost", users.DefaultCost, "bcrypt cost")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash; reads the password from stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password on stdin")
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			if pw == "" {
				return errors.New("empty password")
			}
			hash, err := users.HashPassword(pw, cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", users.DefaultCost, "bcrypt cost")
	return cmd
}
