// Package report orchestrates the two dashboard flows: refreshing the
// local cache from the external sources and assembling the aggregate
// report the UI renders. A failing domain never takes the others down:
// every per-source and per-domain failure degrades to a warning.
package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/internal/sources"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
	"github.com/brainonstrategy/bos-dashboard/pkg/metrics"
	"github.com/brainonstrategy/bos-dashboard/pkg/redis"
)

// RefreshLockName is the single-flight lock serializing cache writers.
const RefreshLockName = "dashboard-refresh"

// AdsFetcher is the ad-gateway surface the service consumes.
type AdsFetcher interface {
	FetchFacebook(ctx context.Context, dateFrom, dateTo string) ([]cache.FacebookRow, error)
	FetchGoogleAds(ctx context.Context, dateFrom, dateTo string) ([]cache.GoogleAdsRow, error)
	FetchTikTok(ctx context.Context, dateFrom, dateTo string) ([]cache.TikTokRow, error)
	FetchAnalytics(ctx context.Context, dateFrom, dateTo string) ([]cache.AnalyticsRow, error)
}

// CRMFetcher is the CRM surface the service consumes.
type CRMFetcher interface {
	FetchOpportunities(ctx context.Context, updateType, dateFrom, dateTo string) ([]cache.OpportunityRow, error)
	FetchAttribution(ctx context.Context, updateType, dateFrom, dateTo string) ([]cache.AttributionRow, error)
	FetchTransactions(ctx context.Context, dateFrom, dateTo string) ([]cache.TransactionRow, error)
}

// Service wires the connectors, the cache store and the analyzers.
type Service struct {
	cfg     *config.Config
	store   *cache.Store
	ads     AdsFetcher
	crm     CRMFetcher
	locker  redis.Locker
	metrics *metrics.RefreshMetrics
	logg    *logger.Logger

	now func() time.Time
}

func NewService(cfg *config.Config, store *cache.Store, ads AdsFetcher, crm CRMFetcher,
	locker redis.Locker, refreshMetrics *metrics.RefreshMetrics, logg *logger.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   store,
		ads:     ads,
		crm:     crm,
		locker:  locker,
		metrics: refreshMetrics,
		logg:    logg,
		now:     time.Now,
	}
}

// InitializeSchema creates the cache tables. Exposed as the explicit
// initialize step and safe to repeat.
func (s *Service) InitializeSchema(ctx context.Context) error {
	return s.store.EnsureSchema(ctx)
}

// SourceResult reports how one source's refresh went.
type SourceResult struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// RefreshResult summarizes a full refresh pass.
type RefreshResult struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Sources   []SourceResult `json:"sources"`
	Warnings  []string       `json:"warnings"`
}

// Refresh fetches every source for the window and upserts the rows into
// the cache, sequentially. Each source is fetch-then-upsert: a failed
// fetch skips the upsert, becomes a warning and the pass moves on. A
// concurrent refresh is refused with a conflict.
func (s *Service) Refresh(ctx context.Context, params Params) (*RefreshResult, error) {
	params = params.withDefaults(s.now())
	if err := params.validate(); err != nil {
		return nil, err
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, RefreshLockName, s.cfg.Redis.LockTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquiring refresh lock")
		}
		if !acquired {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a refresh is already running")
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, RefreshLockName); err != nil && s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("releasing refresh lock: %v", err))
			}
		}()
	}

	if s.logg != nil {
		ctx = s.logg.WithWindow(ctx, params.StartDate, params.EndDate)
		s.logg.Info(ctx, "refresh started")
	}

	result := &RefreshResult{StartDate: params.StartDate, EndDate: params.EndDate}
	var errs error

	steps := []struct {
		source string
		run    func(context.Context) (int, error)
	}{
		{sources.SourceFacebook, func(ctx context.Context) (int, error) {
			rows, err := s.ads.FetchFacebook(ctx, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.FacebookKey)
		}},
		{sources.SourceGoogleAds, func(ctx context.Context) (int, error) {
			rows, err := s.ads.FetchGoogleAds(ctx, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.GoogleAdsKey)
		}},
		{sources.SourceTikTok, func(ctx context.Context) (int, error) {
			rows, err := s.ads.FetchTikTok(ctx, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.TikTokKey)
		}},
		{sources.SourceAnalytics, func(ctx context.Context) (int, error) {
			rows, err := s.ads.FetchAnalytics(ctx, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.AnalyticsKey)
		}},
		{"opportunities", func(ctx context.Context) (int, error) {
			rows, err := s.crm.FetchOpportunities(ctx, params.OpportunityUpdateType, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.OpportunityKey)
		}},
		{"attribution", func(ctx context.Context) (int, error) {
			rows, err := s.crm.FetchAttribution(ctx, params.attributionUpdateField(), params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.AttributionKey)
		}},
		{"transactions", func(ctx context.Context) (int, error) {
			rows, err := s.crm.FetchTransactions(ctx, params.StartDate, params.EndDate)
			if err != nil {
				return 0, err
			}
			return len(rows), s.upsert(ctx, asRows(rows), cache.TransactionsKey)
		}},
	}

	for _, step := range steps {
		started := time.Now()
		count, err := step.run(ctx)
		s.metrics.ObserveDuration(step.source, time.Since(started))

		entry := SourceResult{Source: step.source, Rows: count}
		if err != nil {
			s.metrics.IncFailure(step.source)
			entry.Error = err.Error()
			warning := fmt.Sprintf("refreshing %s: %v", step.source, err)
			result.Warnings = append(result.Warnings, warning)
			errs = multierr.Append(errs, err)
			if s.logg != nil {
				s.logg.Warn(s.logg.WithSource(ctx, step.source), warning)
			}
		} else {
			s.metrics.IncSuccess(step.source)
			if s.logg != nil {
				s.logg.Info(s.logg.WithSource(ctx, step.source), fmt.Sprintf("cached %d rows", count))
			}
		}
		result.Sources = append(result.Sources, entry)
	}

	// A refresh where nothing succeeded is an error; partial failures
	// surface as warnings only.
	if len(result.Warnings) == len(steps) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, errs, "every source failed to refresh")
	}
	return result, nil
}

func (s *Service) upsert(ctx context.Context, rows []cache.Row, keyColumns []string) error {
	if len(rows) == 0 {
		return nil
	}
	return s.store.Upsert(ctx, rows, keyColumns)
}

func asRows[T cache.Row](rows []T) []cache.Row {
	out := make([]cache.Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
