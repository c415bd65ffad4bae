package api

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

// refreshFlightKey is the singleflight key — there is only ever one
// credential set, so all refreshes collapse onto a single flight.
const refreshFlightKey = "refresh"

// coordinator serializes credential refresh: any number of requests that
// fail with a stale token trigger exactly one call to the refresh endpoint,
// and all of them resume with the single resulting access token.
//
// Go has real threads, so the coordination state is a singleflight.Group
// rather than a bare flag-and-queue: Do gives the atomic check-and-set, the
// flight's waiter set is the queue, and flight completion is the drain.
type coordinator struct {
	group  singleflight.Group
	client *Client
}

// refresh returns a usable access token for a caller whose request just
// failed with staleAccess attached. If the stored token has already moved
// past staleAccess (another caller finished a refresh first), it is
// returned without a network call. Otherwise the caller joins the current
// flight, starting one if none is active.
//
// On refresh failure the store is cleared and session-expired is emitted
// exactly once per flight, regardless of how many callers were waiting.
func (r *coordinator) refresh(ctx context.Context, staleAccess string) (string, error) {
	current, err := r.client.store.Get(tokenstore.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("api: reading access token: %w", err)
	}

	if current != "" && current != staleAccess {
		r.client.logger.Debug("token already refreshed by another request")

		return current, nil
	}

	// DoChan rather than Do so an individual caller can stop waiting when
	// its context is canceled without tearing down the shared flight.
	ch := r.group.DoChan(refreshFlightKey, func() (any, error) {
		// The flight outlives any single caller: detach from the leader's
		// cancellation so one aborted request cannot fail every waiter.
		// The HTTP client's own timeout still bounds the call.
		return r.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("api: refresh wait canceled: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		tok, ok := res.Val.(string)
		if !ok {
			return "", fmt.Errorf("api: unexpected refresh result type %T", res.Val)
		}

		return tok, nil
	}
}

// doRefresh performs the actual refresh grant and store update. Runs at
// most once per flight.
func (r *coordinator) doRefresh(ctx context.Context) (string, error) {
	refreshToken, err := r.client.store.Get(tokenstore.KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("api: reading refresh token: %w", err)
	}

	if refreshToken == "" {
		// Nothing to refresh with — terminal, no network call.
		r.client.clearSession(ReasonLoginFailed)

		return "", ErrNotLoggedIn
	}

	r.client.logger.Info("refreshing session token")

	creds, err := r.client.refreshGrant(ctx, refreshToken)
	if err != nil {
		r.client.logger.Warn("session refresh failed", slog.String("error", err.Error()))
		r.client.clearSession(ReasonRefreshFailed)

		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	if err := r.client.store.Set(tokenstore.KeyAccessToken, creds.AccessToken); err != nil {
		return "", fmt.Errorf("api: storing access token: %w", err)
	}

	// Servers may rotate the refresh token on every grant.
	if creds.RefreshToken != "" {
		if err := r.client.store.Set(tokenstore.KeyRefreshToken, creds.RefreshToken); err != nil {
			return "", fmt.Errorf("api: storing refresh token: %w", err)
		}
	}

	r.client.logger.Info("session token refreshed")

	return creds.AccessToken, nil
}
