package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the exp claim from a backend-issued JWT without
// verifying the signature. The backend signs and verifies its own tokens;
// the gateway only needs the expiry to know when a refresh is due.
func TokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return exp.Time, nil
}

// TokenSubject extracts the sub claim the same way, again without
// signature verification.
func TokenSubject(token string) (string, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return subject, nil
}

// ShouldRefresh reports whether the stored token expires within leeway.
// A missing or unparsable token also triggers a refresh.
func ShouldRefresh(ctx context.Context, store Store, leeway time.Duration) bool {
	token, err := store.Get(ctx, KeyAuthToken)
	if err != nil {
		return true
	}
	expiry, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return time.Until(expiry) <= leeway
}
