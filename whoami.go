package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE:  runWhoami,
	}
}

// whoamiResponse mirrors the /me endpoint payload.
type whoamiResponse struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	client, err := newClient(cmd.Context(), cc)
	if err != nil {
		return err
	}

	var me whoamiResponse
	if err := client.GetJSON(cmd.Context(), "/me", &me); err != nil {
		return err
	}

	if cc.JSON {
		return printJSON(os.Stdout, me)
	}

	label := me.Email
	if me.Name != "" {
		label = fmt.Sprintf("%s (%s)", me.Name, me.Email)
	}

	fmt.Println(bold(label))

	if me.Role != "" {
		fmt.Printf("Role: %s\n", me.Role)
	}

	return nil
}
