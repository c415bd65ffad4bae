package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

// Auth endpoint paths.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
	LogoutPath  = "/auth/logout"
)

// Credentials is the token pair issued by the login and refresh endpoints.
// RefreshToken may be empty on refresh responses when the server does not
// rotate refresh tokens.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair and stores it. A 401 here
// means the credentials were rejected: the store is cleared and
// session-expired{login_failed} is published.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("api: encoding login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, LoginPath, body, requestOptions{
		noRefresh:       true,
		noBearer:        true,
		emitAuthFailure: true,
	})
	if err != nil {
		return fmt.Errorf("api: login: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(resp.Body, &creds); err != nil {
		return fmt.Errorf("api: decoding login response: %w", err)
	}

	if creds.AccessToken == "" {
		return fmt.Errorf("api: login response missing access token")
	}

	if err := c.store.Set(tokenstore.KeyAccessToken, creds.AccessToken); err != nil {
		return fmt.Errorf("api: storing access token: %w", err)
	}

	if err := c.store.Set(tokenstore.KeyRefreshToken, creds.RefreshToken); err != nil {
		return fmt.Errorf("api: storing refresh token: %w", err)
	}

	c.logger.Info("login successful")

	return nil
}

// Logout tells the server to revoke the session, then clears local
// credentials. The server call is best-effort: local credentials are
// cleared even when it fails, since that is what the user asked for.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, LogoutPath, nil, requestOptions{noRefresh: true})
	if err != nil {
		c.logger.Warn("server-side logout failed, clearing local credentials anyway",
			slog.String("error", err.Error()),
		)
	}

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("api: clearing credentials: %w", err)
	}

	c.logger.Info("logged out")

	return nil
}

// refreshGrant exchanges a refresh token for fresh credentials. Called
// only from the coordinator's single flight; session-expiry signaling on
// failure is the coordinator's job, not this call's.
func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (Credentials, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return Credentials{}, fmt.Errorf("api: encoding refresh request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, RefreshPath, body, requestOptions{
		noRefresh: true,
		noBearer:  true,
	})
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	if err := json.Unmarshal(resp.Body, &creds); err != nil {
		return Credentials{}, fmt.Errorf("api: decoding refresh response: %w", err)
	}

	if creds.AccessToken == "" {
		return Credentials{}, fmt.Errorf("api: refresh response missing access token")
	}

	return creds, nil
}
