package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// EnvPassword lets scripts and CI log in without an interactive prompt.
const EnvPassword = "OPSBOARD_PASSWORD"

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Opsboard",
		Long: `Authenticate against the Opsboard API and store the session tokens.

The password is read from the OPSBOARD_PASSWORD environment variable when
set, otherwise prompted for on stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")

	return cmd
}

func runLogin(cmd *cobra.Command, email string) error {
	cc := mustCLIContext(cmd.Context())

	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		cc.Statusf("Email: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}

		email = strings.TrimSpace(line)
	}

	if email == "" {
		return fmt.Errorf("email is required")
	}

	password := os.Getenv(EnvPassword)
	if password == "" {
		cc.Statusf("Password: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		return fmt.Errorf("password is required")
	}

	client, err := newClient(cmd.Context(), cc)
	if err != nil {
		return err
	}

	if err := client.Login(cmd.Context(), email, password); err != nil {
		return err
	}

	cc.Statusf("Logged in as %s\n", email)

	return nil
}
