package controllers

import (
	"context"
	"net/http"

	"github.com/oluwatobiadeoye/kolamart-backend/api/responses"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kolamart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kolamart-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		for name, dep := range map[string]Pinger{"database": db, "redis": cache} {
			if dep == nil {
				checks[name] = "unconfigured"
				healthy = false
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeInternal, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
