package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard-go/internal/api"
	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

// Token state constants for status reporting.
const (
	tokenStateMissing = "missing"
	tokenStateExpired = "expired"
	tokenStateValid   = "valid"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Long: `Display the stored session's state without calling the API.

Reads the access token's embedded expiry claim to report whether the
session is valid, expired (refreshable on next use), or missing.`,
		RunE: runStatus,
	}
}

// sessionStatus is the status command's output shape.
type sessionStatus struct {
	TokenState   string `json:"token_state"`
	Expiry       string `json:"expiry,omitempty"`
	RefreshToken bool   `json:"refresh_token"`
	Storage      string `json:"storage"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	store, err := newStore(cmd.Context(), cc)
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	status, err := buildSessionStatus(store, cc.Config.Auth.Storage)
	if err != nil {
		return err
	}

	if cc.JSON {
		return printJSON(os.Stdout, status)
	}

	fmt.Printf("Session: %s\n", bold(status.TokenState))

	if status.Expiry != "" {
		fmt.Printf("Expires: %s\n", status.Expiry)
	}

	if status.RefreshToken {
		fmt.Println("Refresh: available")
	} else {
		fmt.Println("Refresh: not available")
	}

	return nil
}

// buildSessionStatus inspects stored credentials. An expired access token
// with a refresh token present is still a working session — the client
// refreshes it on the next request.
func buildSessionStatus(store tokenstore.Store, storage string) (*sessionStatus, error) {
	status := &sessionStatus{TokenState: tokenStateMissing, Storage: storage}

	access, err := store.Get(tokenstore.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}

	refresh, err := store.Get(tokenstore.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("reading refresh token: %w", err)
	}

	status.RefreshToken = refresh != ""

	if access == "" {
		return status, nil
	}

	expiry, err := api.TokenExpiry(access)
	if err != nil {
		// A token we cannot parse is still a token; report it as valid and
		// let the server be the judge.
		status.TokenState = tokenStateValid

		return status, nil
	}

	if expiry.IsZero() || expiry.After(time.Now()) {
		status.TokenState = tokenStateValid
	} else {
		status.TokenState = tokenStateExpired
	}

	if !expiry.IsZero() {
		status.Expiry = formatTime(expiry)
	}

	return status, nil
}
