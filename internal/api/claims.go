package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim embedded in an access token.
// The signature is not verified — the client has no key material and only
// uses the claim for display and diagnostics, never for access decisions.
// Returns the zero time when the token carries no expiry claim.
func TokenExpiry(accessToken string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, fmt.Errorf("api: parsing access token: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}

	return claims.ExpiresAt.Time, nil
}
