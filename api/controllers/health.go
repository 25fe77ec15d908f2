package controllers

import (
	"context"
	"net/http"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

// Pinger is anything with a liveness probe.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kampyn-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers.
// Optional dependencies are passed as nil and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kampyn-Env", cfg.App.Env)
		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = err.Error()
			}
		}
		if len(checks) > 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
