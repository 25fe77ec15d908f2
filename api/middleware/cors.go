package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/kampyn/ordering-gateway/pkg/config"
)

// CORS applies the configured allowed-origin policy for the web clients.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.Origins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Id", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
