package controllers

import (
	"context"
	"net/http"

	"github.com/brainonstrategy/bos-dashboard/api/responses"
	"github.com/brainonstrategy/bos-dashboard/api/validators"
	"github.com/brainonstrategy/bos-dashboard/internal/report"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
)

// DashboardService is the reporting surface the dashboard controllers
// expose over HTTP.
type DashboardService interface {
	InitializeSchema(ctx context.Context) error
	Refresh(ctx context.Context, params report.Params) (*report.RefreshResult, error)
	Report(ctx context.Context, params report.Params) (*report.Report, error)
}

// DashboardSchema creates the cache tables. Safe to call repeatedly.
func DashboardSchema(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := svc.InitializeSchema(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "initialized"})
	}
}

// DashboardRefresh pulls every source for the requested window into the
// cache. The body is optional: an empty body refreshes the default window.
func DashboardRefresh(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params report.Params
		if err := validators.DecodeJSONBody(r, &params); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Refresh(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DashboardReport aggregates the cached rows into the KPI bundle for the
// requested window and its comparison window.
func DashboardReport(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params := report.Params{
			StartDate:             validators.QueryString(r, "start_date"),
			EndDate:               validators.QueryString(r, "end_date"),
			OpportunityUpdateType: validators.QueryString(r, "opportunity_update_type"),
			LeadUpdateType:        validators.QueryString(r, "lead_update_type"),
		}
		if err := validators.ValidateStruct(&params); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Report(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
