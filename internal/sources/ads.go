// Package sources pulls raw rows from the external systems the dashboard
// reads: the ad-platform reporting gateway over HTTP and the CRM database
// over SQL. Connectors normalize rows into the cache models; persisting
// them is a separate step so a failed fetch never partially writes.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
)

// Ad-platform source names as the reporting gateway knows them. They are
// also the path segment of each report request.
const (
	SourceFacebook  = "facebook"
	SourceGoogleAds = "google_ads"
	SourceTikTok    = "tiktok"
	SourceAnalytics = "googleanalytics4"
)

// AdsClient fetches per-source reports from the ad reporting gateway.
type AdsClient struct {
	cfg  config.AdsAPIConfig
	http *http.Client
	logg *logger.Logger
}

func NewAdsClient(cfg config.AdsAPIConfig, logg *logger.Logger) *AdsClient {
	return &AdsClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		logg: logg,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// reportURL builds the gateway request: one GET per (source, field list,
// date window), JSON renderer.
func (c *AdsClient) reportURL(source, fields, dateFrom, dateTo string) string {
	query := url.Values{}
	query.Set("api_key", c.cfg.APIKey)
	query.Set("date_from", dateFrom)
	query.Set("date_to", dateTo)
	query.Set("fields", fields)
	query.Set("_renderer", "json")
	return fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, source, query.Encode())
}

func fetchReport[T any](ctx context.Context, c *AdsClient, source, fields, dateFrom, dateTo string) ([]T, error) {
	if c.cfg.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeFetch, "ads API base URL is not configured")
	}

	reqURL := c.reportURL(source, fields, dateFrom, dateTo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, fmt.Sprintf("building %s report request", source))
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, fmt.Sprintf("fetching %s report", source))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeFetch,
			fmt.Sprintf("%s report returned status %d: %s", source, resp.StatusCode, string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, fmt.Sprintf("decoding %s report envelope", source))
	}
	if env.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFetch, fmt.Sprintf("%s report has no data array", source))
	}

	var records []T
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, fmt.Sprintf("decoding %s report rows", source))
	}

	if c.logg != nil {
		logCtx := c.logg.WithSource(ctx, source)
		logCtx = c.logg.WithFields(logCtx, map[string]any{
			"rows":    len(records),
			"elapsed": time.Since(started).String(),
		})
		c.logg.Info(logCtx, "ads report fetched")
	}
	return records, nil
}

// normalizeDate reduces whatever timestamp variant the gateway emits to a
// plain calendar date.
func normalizeDate(value string) string {
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(value) >= 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

type facebookRecord struct {
	Datasource     string  `json:"datasource"`
	Source         string  `json:"source"`
	AccountID      string  `json:"account_id"`
	AccountName    string  `json:"account_name"`
	Date           string  `json:"date"`
	Campaign       string  `json:"campaign"`
	AdsetName      string  `json:"adset_name"`
	AdName         string  `json:"ad_name"`
	Spend          float64 `json:"spend"`
	Impressions    int64   `json:"impressions"`
	OutboundClicks int64   `json:"outbound_clicks_outbound_click"`
}

// FetchFacebook pulls the Meta report for the window.
func (c *AdsClient) FetchFacebook(ctx context.Context, dateFrom, dateTo string) ([]cache.FacebookRow, error) {
	records, err := fetchReport[facebookRecord](ctx, c, SourceFacebook, c.cfg.FacebookFields, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	rows := make([]cache.FacebookRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.FacebookRow{
			Datasource:     r.Datasource,
			Source:         r.Source,
			AccountID:      r.AccountID,
			AccountName:    r.AccountName,
			Date:           normalizeDate(r.Date),
			Campaign:       r.Campaign,
			AdsetName:      r.AdsetName,
			AdName:         r.AdName,
			Spend:          r.Spend,
			Impressions:    r.Impressions,
			OutboundClicks: r.OutboundClicks,
		})
	}
	return rows, nil
}

type googleAdsRecord struct {
	Datasource  string  `json:"datasource"`
	Source      string  `json:"source"`
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Date        string  `json:"date"`
	Campaign    string  `json:"campaign"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	KeywordText string  `json:"keyword_text"`
}

// FetchGoogleAds pulls the Google Ads report for the window.
func (c *AdsClient) FetchGoogleAds(ctx context.Context, dateFrom, dateTo string) ([]cache.GoogleAdsRow, error) {
	records, err := fetchReport[googleAdsRecord](ctx, c, SourceGoogleAds, c.cfg.GoogleAdsFields, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	rows := make([]cache.GoogleAdsRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.GoogleAdsRow{
			Datasource:  r.Datasource,
			Source:      r.Source,
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			Date:        normalizeDate(r.Date),
			Campaign:    r.Campaign,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
			KeywordText: r.KeywordText,
		})
	}
	return rows, nil
}

type tikTokRecord struct {
	Datasource  string  `json:"datasource"`
	Source      string  `json:"source"`
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Date        string  `json:"date"`
	Campaign    string  `json:"campaign"`
	AdGroupName string  `json:"ad_group_name"`
	AdName      string  `json:"ad_name"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
}

// FetchTikTok pulls the TikTok report for the window.
func (c *AdsClient) FetchTikTok(ctx context.Context, dateFrom, dateTo string) ([]cache.TikTokRow, error) {
	records, err := fetchReport[tikTokRecord](ctx, c, SourceTikTok, c.cfg.TikTokFields, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	rows := make([]cache.TikTokRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.TikTokRow{
			Datasource:  r.Datasource,
			Source:      r.Source,
			AccountID:   r.AccountID,
			AccountName: r.AccountName,
			Date:        normalizeDate(r.Date),
			Campaign:    r.Campaign,
			AdGroupName: r.AdGroupName,
			AdName:      r.AdName,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
		})
	}
	return rows, nil
}

type analyticsRecord struct {
	Datasource         string  `json:"datasource"`
	Source             string  `json:"source"`
	AccountID          string  `json:"account_id"`
	AccountName        string  `json:"account_name"`
	Date               string  `json:"date"`
	Campaign           string  `json:"campaign"`
	Sessions           int64   `json:"sessions"`
	EngagedSessions    int64   `json:"engaged_sessions"`
	ActiveUsers        int64   `json:"active_users"`
	PagePath           string  `json:"page_path"`
	EngagementDuration float64 `json:"user_engagement_duration"`
}

// FetchAnalytics pulls the web-analytics report for the window.
func (c *AdsClient) FetchAnalytics(ctx context.Context, dateFrom, dateTo string) ([]cache.AnalyticsRow, error) {
	records, err := fetchReport[analyticsRecord](ctx, c, SourceAnalytics, c.cfg.AnalyticsFields, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	rows := make([]cache.AnalyticsRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.AnalyticsRow{
			Datasource:         r.Datasource,
			Source:             r.Source,
			AccountID:          r.AccountID,
			AccountName:        r.AccountName,
			Date:               normalizeDate(r.Date),
			Campaign:           r.Campaign,
			Sessions:           r.Sessions,
			EngagedSessions:    r.EngagedSessions,
			ActiveUsers:        r.ActiveUsers,
			PagePath:           r.PagePath,
			EngagementDuration: r.EngagementDuration,
		})
	}
	return rows, nil
}
