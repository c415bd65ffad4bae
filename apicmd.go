package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api METHOD PATH [BODY]",
		Short: "Make an authenticated API request",
		Long: `Send a raw request through the authenticated client and print the
JSON response.

The request gets the same treatment as every other call: bearer token,
transparent refresh, and retry with backoff.

Examples:
  opsboard api GET /projects
  opsboard api POST /reports '{"name":"weekly"}'`,
		Args: cobra.RangeArgs(2, 3), //nolint:mnd // METHOD PATH [BODY]
		RunE: runAPI,
	}
}

func runAPI(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	method := strings.ToUpper(args[0])
	path := args[1]

	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with /")
	}

	var body []byte
	if len(args) == 3 {
		body = []byte(args[2])

		if !json.Valid(body) {
			return fmt.Errorf("body is not valid JSON")
		}
	}

	client, err := newClient(cmd.Context(), cc)
	if err != nil {
		return err
	}

	resp, err := client.Do(cmd.Context(), method, path, body)
	if err != nil {
		return err
	}

	if len(resp.Body) == 0 {
		cc.Statusf("HTTP %d (empty body)\n", resp.StatusCode)

		return nil
	}

	// Pretty-print JSON responses; pass anything else through untouched.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp.Body, "", "  "); err != nil {
		os.Stdout.Write(resp.Body)
		fmt.Println()

		return nil //nolint:nilerr // non-JSON body is not an error
	}

	fmt.Println(pretty.String())

	return nil
}
