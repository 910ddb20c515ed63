package report

import (
	"context"
	"testing"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
)

func seededService(t *testing.T) *Service {
	t.Helper()
	ads := &fakeAds{
		facebook: []cache.FacebookRow{
			{Datasource: "facebook", AccountName: "Main", Date: "2024-01-10", Campaign: "A", Spend: 140, Impressions: 10000, OutboundClicks: 50},
			{Datasource: "facebook", AccountName: "Main", Date: "2023-12-30", Campaign: "A", Spend: 100, Impressions: 10000, OutboundClicks: 50},
		},
		analytics: []cache.AnalyticsRow{
			{Datasource: "googleanalytics4", AccountName: "Main", Date: "2024-01-10", Source: "googleads.x", Campaign: "paid", ActiveUsers: 10, Sessions: 100, EngagedSessions: 50},
		},
	}
	crm := &fakeCRM{
		opportunities: []cache.OpportunityRow{
			{ID: "1", CreatedAt: "2024-01-10", LastStageChangeAt: "2024-01-10", Stage: "Vinti generici", MonetaryValue: 600},
			{ID: "2", CreatedAt: "2024-01-11", LastStageChangeAt: "2024-01-11", Stage: "Nuova Opportunità"},
		},
		attribution: []cache.AttributionRow{
			{ID: "1", CreatedAt: "2024-01-10", LastStageChangeAt: "2024-01-10", AcquisitionDate: "2024-01-10", Source: "facebook", PipelineStageName: "Vinti generici"},
		},
		transactions: []cache.TransactionRow{
			{ID: "t1", Date: "2024-01-10", ProductName: "Mensile", Amount: 100, Status: "succeeded"},
			{ID: "t2", Date: "2024-01-10", ProductName: "Mensile", Amount: 100, Status: "failed"},
		},
	}
	svc := testService(t, ads, crm, nil)
	if _, err := svc.Refresh(context.Background(), Params{StartDate: "2023-12-23", EndDate: "2024-01-19"}); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	return svc
}

func TestReportAssemblesSections(t *testing.T) {
	svc := seededService(t)

	rep, err := svc.Report(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if rep.Window.StartDate != "2024-01-06" || rep.Window.Days != 14 {
		t.Fatalf("unexpected window meta %+v", rep.Window)
	}
	if rep.Comparison.StartDate != "2023-12-23" || rep.Comparison.EndDate != "2024-01-05" {
		t.Fatalf("unexpected comparison meta %+v", rep.Comparison)
	}

	if rep.Meta.Current.TotalSpend != 140 {
		t.Fatalf("expected current meta spend 140, got %v", rep.Meta.Current.TotalSpend)
	}
	if rep.Meta.Previous.TotalSpend != 100 {
		t.Fatalf("expected previous meta spend 100, got %v", rep.Meta.Previous.TotalSpend)
	}
	if !rep.Meta.SpendDelta.Valid || rep.Meta.SpendDelta.Percent != 40 {
		t.Fatalf("expected +40%% spend delta, got %+v", rep.Meta.SpendDelta)
	}
	if rep.Meta.SpendDisplay != "€ 140,00" {
		t.Fatalf("unexpected spend display %q", rep.Meta.SpendDisplay)
	}

	if rep.Pipeline.Current.Won != 1 || rep.Pipeline.Current.Revenue != 600 {
		t.Fatalf("unexpected pipeline section %+v", rep.Pipeline.Current)
	}
	if rep.Pipeline.Previous.Won != 0 || rep.Pipeline.WonDelta.Valid {
		t.Fatalf("expected not-applicable won delta, got %+v", rep.Pipeline.WonDelta)
	}

	if rep.Traffic.Current.Sessions != 100 {
		t.Fatalf("unexpected traffic section %+v", rep.Traffic.Current)
	}
	if len(rep.Traffic.DisplayChannels) != 1 || rep.Traffic.DisplayChannels[0].Channel != "google_ads" {
		t.Fatalf("unexpected display channels %+v", rep.Traffic.DisplayChannels)
	}

	if rep.Attribution.Current.Leads != 1 || rep.Attribution.Current.Won != 1 {
		t.Fatalf("unexpected attribution section %+v", rep.Attribution.Current)
	}

	if rep.Transactions.Current.Count != 1 || rep.Transactions.Current.Amount != 100 {
		t.Fatalf("failed payments must not count, got %+v", rep.Transactions.Current)
	}

	if len(rep.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", rep.Warnings)
	}
}

func TestReportDegradesPerDomain(t *testing.T) {
	// No schema at all: every domain fails its cache query, but the
	// report still renders with warnings and empty sections.
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	client, err := db.NewCache(context.Background(), config.CacheDBConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	svc := NewService(cfg, cache.NewStore(client), &fakeAds{}, &fakeCRM{}, nil, nil, nil)

	rep, err := svc.Report(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	if err != nil {
		t.Fatalf("report must degrade, not fail: %v", err)
	}
	if len(rep.Warnings) != 7 {
		t.Fatalf("expected a warning per domain, got %v", rep.Warnings)
	}
	if rep.Meta.Current.TotalSpend != 0 || rep.Pipeline.Current.Total != 0 {
		t.Fatalf("expected empty bundles, got %+v", rep.Meta.Current)
	}
}

func TestReportRejectsInvalidWindow(t *testing.T) {
	svc := testService(t, &fakeAds{}, &fakeCRM{}, nil)

	if _, err := svc.Report(context.Background(), Params{StartDate: "2024-01-10", EndDate: "2024-01-01"}); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}
