package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/brainonstrategy/bos-dashboard/api/routes"
	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/internal/report"
	"github.com/brainonstrategy/bos-dashboard/internal/sources"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
	"github.com/brainonstrategy/bos-dashboard/pkg/metrics"
	"github.com/brainonstrategy/bos-dashboard/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	cacheDB, err := db.NewCache(context.Background(), cfg.CacheDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open cache database", err)
		os.Exit(1)
	}
	defer func() {
		if err := cacheDB.Close(); err != nil {
			logg.Error(context.Background(), "error closing cache database", err)
		}
	}()

	store := cache.NewStore(cacheDB)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to ensure cache schema", err)
		os.Exit(1)
	}

	var crmDB *db.Client
	if cfg.CRM.DSN != "" {
		crmDB, err = db.NewCRM(context.Background(), cfg.CRM, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to connect to CRM database", err)
			os.Exit(1)
		}
		defer func() {
			if err := crmDB.Close(); err != nil {
				logg.Error(context.Background(), "error closing CRM database", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "CRM not configured, CRM sources will report fetch errors")
	}

	var redisClient *redis.Client
	var locker redis.Locker
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		locker = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, refresh lock disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	refreshMetrics := metrics.NewRefreshMetrics(registry)

	adsClient := sources.NewAdsClient(cfg.AdsAPI, logg)
	crmClient := sources.NewCRMClient(crmDB, cfg.CRM, logg)

	service := report.NewService(cfg, store, adsClient, crmClient, locker, refreshMetrics, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, service, cacheDB, crmDB, redisClient, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
