package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"github.com/brainonstrategy/bos-dashboard/pkg/redis"
)

type fakeAds struct {
	facebook  []cache.FacebookRow
	googleAds []cache.GoogleAdsRow
	tiktok    []cache.TikTokRow
	analytics []cache.AnalyticsRow
	err       error
}

func (f *fakeAds) FetchFacebook(ctx context.Context, from, to string) ([]cache.FacebookRow, error) {
	return f.facebook, f.err
}
func (f *fakeAds) FetchGoogleAds(ctx context.Context, from, to string) ([]cache.GoogleAdsRow, error) {
	return f.googleAds, f.err
}
func (f *fakeAds) FetchTikTok(ctx context.Context, from, to string) ([]cache.TikTokRow, error) {
	return f.tiktok, f.err
}
func (f *fakeAds) FetchAnalytics(ctx context.Context, from, to string) ([]cache.AnalyticsRow, error) {
	return f.analytics, f.err
}

type fakeCRM struct {
	opportunities []cache.OpportunityRow
	attribution   []cache.AttributionRow
	transactions  []cache.TransactionRow
	err           error

	gotOppUpdateType  string
	gotLeadUpdateType string
}

func (f *fakeCRM) FetchOpportunities(ctx context.Context, updateType, from, to string) ([]cache.OpportunityRow, error) {
	f.gotOppUpdateType = updateType
	return f.opportunities, f.err
}
func (f *fakeCRM) FetchAttribution(ctx context.Context, updateType, from, to string) ([]cache.AttributionRow, error) {
	f.gotLeadUpdateType = updateType
	return f.attribution, f.err
}
func (f *fakeCRM) FetchTransactions(ctx context.Context, from, to string) ([]cache.TransactionRow, error) {
	return f.transactions, f.err
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocker) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, name string) error {
	l.released++
	return nil
}

func testService(t *testing.T, ads *fakeAds, crm *fakeCRM, locker *fakeLocker) *Service {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	client, err := db.NewCache(context.Background(), config.CacheDBConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store := cache.NewStore(client)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	var lock redis.Locker
	if locker != nil {
		lock = locker
	}
	svc := NewService(cfg, store, ads, crm, lock, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRefreshCachesEverySource(t *testing.T) {
	ads := &fakeAds{
		facebook: []cache.FacebookRow{{
			Datasource: "facebook", AccountName: "Main", Date: "2024-01-10",
			Campaign: "A", Spend: 10, Impressions: 100, OutboundClicks: 5,
		}},
		googleAds: []cache.GoogleAdsRow{{
			Datasource: "google", AccountName: "Main", Date: "2024-01-10",
			Campaign: "B", Spend: 20,
		}},
	}
	crm := &fakeCRM{
		opportunities: []cache.OpportunityRow{{
			ID: "1", CreatedAt: "2024-01-10", LastStageChangeAt: "2024-01-10",
			Stage: "Vinti generici", MonetaryValue: 100,
		}},
		transactions: []cache.TransactionRow{{
			ID: "t1", Date: "2024-01-10", ProductName: "Mensile", Amount: 50, Status: "succeeded",
		}},
	}
	locker := &fakeLocker{}
	svc := testService(t, ads, crm, locker)

	result, err := svc.Refresh(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected clean refresh, got warnings %v", result.Warnings)
	}
	if len(result.Sources) != 7 {
		t.Fatalf("expected 7 source results, got %d", len(result.Sources))
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Fatalf("expected lock acquired and released once, got %d/%d", locker.acquired, locker.released)
	}

	rows, err := cache.QueryRange[cache.FacebookRow](context.Background(), svc.store, cache.TableFacebook, "date", "2024-01-06", "2024-01-19")
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(rows) != 1 || rows[0].Spend != 10 {
		t.Fatalf("expected facebook row cached, got %+v", rows)
	}
}

func TestRefreshConvertsSourceFailuresToWarnings(t *testing.T) {
	ads := &fakeAds{err: errors.New("gateway down")}
	crm := &fakeCRM{
		opportunities: []cache.OpportunityRow{{ID: "1", CreatedAt: "2024-01-10", Stage: "Vinti generici"}},
	}
	svc := testService(t, ads, crm, nil)

	result, err := svc.Refresh(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	if err != nil {
		t.Fatalf("partial failure must not fail the refresh: %v", err)
	}
	if len(result.Warnings) != 4 {
		t.Fatalf("expected 4 ad-source warnings, got %v", result.Warnings)
	}

	rows, err := cache.QueryRange[cache.OpportunityRow](context.Background(), svc.store, cache.TableOpportunity, "created_at", "2024-01-06", "2024-01-19")
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("CRM rows must still be cached, got %d", len(rows))
	}
}

func TestRefreshFailsWhenEverySourceFails(t *testing.T) {
	svc := testService(t, &fakeAds{err: errors.New("down")}, &fakeCRM{err: errors.New("down")}, nil)

	_, err := svc.Refresh(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeFetch {
		t.Fatalf("expected fetch error when nothing succeeds, got %v", err)
	}
}

func TestRefreshRefusedWhileLockHeld(t *testing.T) {
	svc := testService(t, &fakeAds{}, &fakeCRM{}, &fakeLocker{held: true})

	_, err := svc.Refresh(context.Background(), Params{StartDate: "2024-01-06", EndDate: "2024-01-19"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while lock held, got %v", err)
	}
}

func TestRefreshForwardsUpdateTypes(t *testing.T) {
	crm := &fakeCRM{}
	svc := testService(t, &fakeAds{}, crm, nil)

	_, err := svc.Refresh(context.Background(), Params{
		StartDate:             "2024-01-06",
		EndDate:               "2024-01-19",
		OpportunityUpdateType: "lastStageChangeAt",
		LeadUpdateType:        LeadUpdateOpportunity,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if crm.gotOppUpdateType != "lastStageChangeAt" {
		t.Fatalf("expected opportunity update type forwarded, got %q", crm.gotOppUpdateType)
	}
	// Lead update "opportunity" defers to the opportunity update type.
	if crm.gotLeadUpdateType != "lastStageChangeAt" {
		t.Fatalf("expected lead update type to follow opportunities, got %q", crm.gotLeadUpdateType)
	}
}

func TestRefreshRejectsBadUpdateType(t *testing.T) {
	svc := testService(t, &fakeAds{}, &fakeCRM{}, nil)

	_, err := svc.Refresh(context.Background(), Params{
		StartDate:             "2024-01-06",
		EndDate:               "2024-01-19",
		OpportunityUpdateType: "whenever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParamsDefaults(t *testing.T) {
	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	p := Params{}.withDefaults(now)
	if p.StartDate != "2024-01-06" || p.EndDate != "2024-01-19" {
		t.Fatalf("unexpected default window %s..%s", p.StartDate, p.EndDate)
	}
	if p.OpportunityUpdateType != "createdAt" || p.LeadUpdateType != LeadUpdateAcquisition {
		t.Fatalf("unexpected default update types %+v", p)
	}
}
