package main

import (
	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		Long: `Revoke the session server-side and remove stored tokens.

Local credentials are cleared even if the server cannot be reached.`,
		RunE: runLogout,
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	client, err := newClient(cmd.Context(), cc)
	if err != nil {
		return err
	}

	if err := client.Logout(cmd.Context()); err != nil {
		return err
	}

	cc.Statusf("Logged out\n")

	return nil
}
