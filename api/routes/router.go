package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brainonstrategy/bos-dashboard/api/controllers"
	"github.com/brainonstrategy/bos-dashboard/api/middleware"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
	"github.com/brainonstrategy/bos-dashboard/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dashboardService controllers.DashboardService,
	cacheDB db.Pinger,
	crmDB db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, cacheDB, crmDB, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Post("/schema", controllers.DashboardSchema(dashboardService, logg))
		r.Post("/refresh", controllers.DashboardRefresh(dashboardService, logg))
		r.Get("/report", controllers.DashboardReport(dashboardService, logg))
	})

	return r
}
