package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/session"
)

const sessionIDHeader = "X-Session-Id"

// TokenSource resolves the backend auth token for a browser session,
// refreshing it when it is close to expiry.
type TokenSource interface {
	Token(ctx context.Context, sessionID string) (string, error)
}

// Auth resolves the caller's backend token and seeds the request context.
// Two entry paths are accepted: a gateway session id, or a raw bearer
// token forwarded as-is. The backend stays the only verifier of either;
// the gateway just reads the unverified subject for log correlation and
// per-user scoping.
func Auth(tokens TokenSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))

			if token == "" && sessionID != "" && tokens != nil {
				resolved, err := tokens.Token(ctx, sessionID)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				token = resolved
			}

			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			userID, err := session.TokenSubject(token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx = WithUserID(ctx, userID)
			if sessionID != "" {
				ctx = WithSessionID(ctx, sessionID)
			}
			ctx = backend.WithToken(ctx, token)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionOnly attaches the session id without requiring a token, used by
// the auth endpoints themselves.
func SessionOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader)); sessionID != "" {
				ctx = WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
