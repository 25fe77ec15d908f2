package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns or adopts a request id and threads it through the
// logger and every backend call made for this request, so one id traces
// the hop across both services.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := backend.WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
