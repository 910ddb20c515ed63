package controllers

import (
	"context"
	"net/http"

	"github.com/brainonstrategy/bos-dashboard/api/responses"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
	"github.com/brainonstrategy/bos-dashboard/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the cache database plus whatever optional backends are
// wired. Optional backends are skipped when nil: the dashboard can run
// without the CRM and without Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, cacheDB db.Pinger, crmDB db.Pinger, redisClient redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BOS-Env", cfg.App.Env)
		ctx := r.Context()

		checks := []struct {
			name   string
			pinger interface {
				Ping(context.Context) error
			}
		}{
			{"cache_db", cacheDB},
			{"crm_db", crmDB},
			{"redis", redisClient},
		}

		for _, check := range checks {
			if check.pinger == nil || isNilPinger(check.pinger) {
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeFetch, err, "dependency not ready").
						WithDetails(map[string]string{"component": check.name}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func isNilPinger(p any) bool {
	switch v := p.(type) {
	case *db.Client:
		return v == nil
	case *redis.Client:
		return v == nil
	}
	return false
}
