package report

import (
	"context"
	"fmt"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/internal/insights"
	"github.com/brainonstrategy/bos-dashboard/internal/sources"
	"github.com/brainonstrategy/bos-dashboard/pkg/format"
)

// WindowMeta describes one reporting period in the payload.
type WindowMeta struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// AdsSection carries one ad platform's bundles and headline deltas.
type AdsSection struct {
	Current    insights.AdsBundle `json:"current"`
	Previous   insights.AdsBundle `json:"previous"`
	SpendDelta format.Delta       `json:"spend_delta"`
	CPCDelta   format.Delta       `json:"cpc_delta"`
	CTRDelta   format.Delta       `json:"ctr_delta"`

	SpendDisplay string `json:"spend_display"`
}

// TrafficSection carries the web-analytics bundles and headline deltas.
type TrafficSection struct {
	Current          insights.TrafficBundle  `json:"current"`
	Previous         insights.TrafficBundle  `json:"previous"`
	ActiveUsersDelta format.Delta            `json:"active_users_delta"`
	SessionsDelta    format.Delta            `json:"sessions_delta"`
	DisplayChannels  []insights.ChannelShare `json:"display_channels"`
}

// PipelineSection carries the funnel bundles and headline deltas.
type PipelineSection struct {
	Current      insights.PipelineBundle `json:"current"`
	Previous     insights.PipelineBundle `json:"previous"`
	WonDelta     format.Delta            `json:"won_delta"`
	RevenueDelta format.Delta            `json:"revenue_delta"`

	RevenueDisplay string `json:"revenue_display"`
}

// AttributionSection carries the per-source funnel bundles.
type AttributionSection struct {
	Current    insights.AttributionBundle `json:"current"`
	Previous   insights.AttributionBundle `json:"previous"`
	LeadsDelta format.Delta               `json:"leads_delta"`
}

// TransactionsSection carries the payment bundles and headline deltas.
type TransactionsSection struct {
	Current     insights.TransactionsBundle `json:"current"`
	Previous    insights.TransactionsBundle `json:"previous"`
	AmountDelta format.Delta                `json:"amount_delta"`

	AmountDisplay string `json:"amount_display"`
}

// Report is the full dashboard payload: every domain section plus the
// warnings collected while building it.
type Report struct {
	Window     WindowMeta `json:"window"`
	Comparison WindowMeta `json:"comparison"`

	Meta         AdsSection          `json:"meta"`
	GoogleAds    AdsSection          `json:"google_ads"`
	TikTok       AdsSection          `json:"tiktok"`
	Traffic      TrafficSection      `json:"traffic"`
	Pipeline     PipelineSection     `json:"pipeline"`
	Attribution  AttributionSection  `json:"attribution"`
	Transactions TransactionsSection `json:"transactions"`

	Warnings []string `json:"warnings"`
}

// Report assembles the dashboard payload from the cache. Each domain is
// computed independently: a failing domain contributes an empty section
// and a warning, never an error for the whole report.
func (s *Service) Report(ctx context.Context, params Params) (*Report, error) {
	params = params.withDefaults(s.now())
	if err := params.validate(); err != nil {
		return nil, err
	}

	pair, err := insights.NewWindowPair(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}
	rangeStart, rangeEnd := pair.CombinedRange()

	if s.logg != nil {
		ctx = s.logg.WithWindow(ctx, params.StartDate, params.EndDate)
	}

	rep := &Report{
		Window: WindowMeta{
			StartDate: pair.Current.StartDate(),
			EndDate:   pair.Current.EndDate(),
			Days:      pair.Current.Days(),
		},
		Comparison: WindowMeta{
			StartDate: pair.Comparison.StartDate(),
			EndDate:   pair.Comparison.EndDate(),
			Days:      pair.Comparison.Days(),
		},
	}
	stages := insights.NewStageGroups(s.cfg.Stages)

	warn := func(domain string, err error) {
		warning := fmt.Sprintf("aggregating %s: %v", domain, err)
		rep.Warnings = append(rep.Warnings, warning)
		if s.logg != nil {
			s.logg.Warn(ctx, warning)
		}
	}

	// Meta.
	if rows, err := cache.QueryRange[cache.FacebookRow](ctx, s.store, cache.TableFacebook, "date", rangeStart, rangeEnd); err != nil {
		warn("meta", err)
	} else {
		analyzer := insights.AdsAnalyzer{
			Datasource:  "facebook",
			AccountName: s.cfg.Accounts.MetaAccount,
			Windows:     pair,
			Exclusions:  s.cfg.Accounts.ExcludeCampaigns,
		}
		current, previous := analyzer.Analyze(insights.AdRowsFromFacebook(rows))
		rep.Meta = adsSection(current, previous)
	}

	// Google Ads.
	if rows, err := cache.QueryRange[cache.GoogleAdsRow](ctx, s.store, cache.TableGoogleAds, "date", rangeStart, rangeEnd); err != nil {
		warn("google ads", err)
	} else {
		analyzer := insights.AdsAnalyzer{
			Datasource:  "google",
			AccountName: s.cfg.Accounts.GoogleAdsAccount,
			Windows:     pair,
		}
		current, previous := analyzer.Analyze(insights.AdRowsFromGoogleAds(rows))
		rep.GoogleAds = adsSection(current, previous)
	}

	// TikTok.
	if rows, err := cache.QueryRange[cache.TikTokRow](ctx, s.store, cache.TableTikTok, "date", rangeStart, rangeEnd); err != nil {
		warn("tiktok", err)
	} else {
		analyzer := insights.AdsAnalyzer{
			Datasource:  "tiktok",
			AccountName: s.cfg.Accounts.TikTokAccount,
			Windows:     pair,
		}
		current, previous := analyzer.Analyze(insights.AdRowsFromTikTok(rows))
		rep.TikTok = adsSection(current, previous)
	}

	// Traffic.
	if rows, err := cache.QueryRange[cache.AnalyticsRow](ctx, s.store, cache.TableAnalytics, "date", rangeStart, rangeEnd); err != nil {
		warn("traffic", err)
	} else {
		analyzer := insights.TrafficAnalyzer{
			Datasource:  sources.SourceAnalytics,
			AccountName: s.cfg.Accounts.AnalyticsAccount,
			Windows:     pair,
		}
		current, previous := analyzer.Analyze(rows)
		rep.Traffic = TrafficSection{
			Current:          current,
			Previous:         previous,
			ActiveUsersDelta: format.PercentDelta(float64(current.ActiveUsers), float64(previous.ActiveUsers)),
			SessionsDelta:    format.PercentDelta(float64(current.Sessions), float64(previous.Sessions)),
			DisplayChannels:  insights.FoldBelowThreshold(current.Channels),
		}
	}

	// Pipeline.
	if rows, err := cache.QueryRange[cache.OpportunityRow](ctx, s.store, cache.TableOpportunity, opportunityDateColumn(params.OpportunityUpdateType), rangeStart, rangeEnd); err != nil {
		warn("pipeline", err)
	} else {
		analyzer := insights.PipelineAnalyzer{
			Windows:     pair,
			Stages:      stages,
			Team:        s.cfg.Team,
			UpdateField: params.OpportunityUpdateType,
		}
		current, previous := analyzer.Analyze(rows)
		rep.Pipeline = PipelineSection{
			Current:        current,
			Previous:       previous,
			WonDelta:       format.PercentDelta(float64(current.Won), float64(previous.Won)),
			RevenueDelta:   format.PercentDelta(current.Revenue, previous.Revenue),
			RevenueDisplay: format.Currency(current.Revenue),
		}
	}

	// Attribution.
	if rows, err := cache.QueryRange[cache.AttributionRow](ctx, s.store, cache.TableAttribution, attributionDateColumn(params.attributionUpdateField()), rangeStart, rangeEnd); err != nil {
		warn("attribution", err)
	} else {
		analyzer := insights.AttributionAnalyzer{
			Windows:     pair,
			Stages:      stages,
			UpdateField: params.attributionUpdateField(),
		}
		current, previous := analyzer.Analyze(rows)
		rep.Attribution = AttributionSection{
			Current:    current,
			Previous:   previous,
			LeadsDelta: format.PercentDelta(float64(current.Leads), float64(previous.Leads)),
		}
	}

	// Transactions.
	if rows, err := cache.QueryRange[cache.TransactionRow](ctx, s.store, cache.TableTransactions, "date", rangeStart, rangeEnd); err != nil {
		warn("transactions", err)
	} else {
		analyzer := insights.TransactionAnalyzer{Windows: pair}
		current, previous := analyzer.Analyze(rows)
		rep.Transactions = TransactionsSection{
			Current:       current,
			Previous:      previous,
			AmountDelta:   format.PercentDelta(current.Amount, previous.Amount),
			AmountDisplay: format.Currency(current.Amount),
		}
	}

	return rep, nil
}

func adsSection(current, previous insights.AdsBundle) AdsSection {
	return AdsSection{
		Current:      current,
		Previous:     previous,
		SpendDelta:   format.PercentDelta(current.TotalSpend, previous.TotalSpend),
		CPCDelta:     format.PercentDelta(current.CPC, previous.CPC),
		CTRDelta:     format.PercentDelta(current.CTR, previous.CTR),
		SpendDisplay: format.Currency(current.TotalSpend),
	}
}

// opportunityDateColumn maps the update type onto the cache column the
// range query filters by.
func opportunityDateColumn(updateType string) string {
	if updateType == insights.UpdateByStageChange {
		return "last_stage_change_at"
	}
	return "created_at"
}

func attributionDateColumn(updateField string) string {
	switch updateField {
	case insights.UpdateByCreation:
		return "created_at"
	case insights.UpdateByStageChange:
		return "last_stage_change_at"
	default:
		return "acquisition_date"
	}
}
