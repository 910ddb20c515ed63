package insights

import (
	"sort"
	"strings"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
)

// AdRow is the common shape the ad-platform analyzers aggregate over.
// The per-platform sub-dimensions (adset, ad group, keyword) matter for
// cache identity but not for rollups, so they are dropped here.
type AdRow struct {
	Datasource  string
	AccountName string
	Date        string
	Campaign    string
	Spend       float64
	Impressions int64
	Clicks      int64
}

func AdRowsFromFacebook(rows []cache.FacebookRow) []AdRow {
	out := make([]AdRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdRow{
			Datasource:  r.Datasource,
			AccountName: r.AccountName,
			Date:        r.Date,
			Campaign:    r.Campaign,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.OutboundClicks,
		})
	}
	return out
}

func AdRowsFromGoogleAds(rows []cache.GoogleAdsRow) []AdRow {
	out := make([]AdRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdRow{
			Datasource:  r.Datasource,
			AccountName: r.AccountName,
			Date:        r.Date,
			Campaign:    r.Campaign,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
		})
	}
	return out
}

func AdRowsFromTikTok(rows []cache.TikTokRow) []AdRow {
	out := make([]AdRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdRow{
			Datasource:  r.Datasource,
			AccountName: r.AccountName,
			Date:        r.Date,
			Campaign:    r.Campaign,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
		})
	}
	return out
}

// CampaignStats is one row of the per-campaign breakdown table.
type CampaignStats struct {
	Campaign    string  `json:"campaign"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
}

// AdsBundle is the aggregate for one ad platform over one window.
type AdsBundle struct {
	TotalSpend      float64           `json:"total_spend"`
	Impressions     int64             `json:"impressions"`
	Clicks          int64             `json:"clicks"`
	ActiveCampaigns int               `json:"active_campaigns"`
	CPM             float64           `json:"cpm"`
	CTR             float64           `json:"ctr"`
	CPC             float64           `json:"cpc"`
	DailySpend      []TimeSeriesPoint `json:"daily_spend"`
	Campaigns       []CampaignStats   `json:"campaigns"`
}

// AdsAnalyzer aggregates one ad platform's raw rows into per-window
// bundles. Rows are filtered to the platform's datasource and account,
// and campaigns matching any exclusion substring are dropped entirely.
type AdsAnalyzer struct {
	Datasource  string
	AccountName string
	Windows     WindowPair
	Exclusions  []string
}

func (a AdsAnalyzer) Analyze(rows []AdRow) (current, comparison AdsBundle) {
	return a.aggregate(a.filter(rows, a.Windows.Current), a.Windows.Current),
		a.aggregate(a.filter(rows, a.Windows.Comparison), a.Windows.Comparison)
}

func (a AdsAnalyzer) filter(rows []AdRow, w Window) []AdRow {
	out := make([]AdRow, 0, len(rows))
	for _, r := range rows {
		if r.Datasource != a.Datasource {
			continue
		}
		if a.AccountName != "" && r.AccountName != a.AccountName {
			continue
		}
		if !w.Contains(r.Date) {
			continue
		}
		if a.excluded(r.Campaign) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a AdsAnalyzer) excluded(campaign string) bool {
	for _, pattern := range a.Exclusions {
		if pattern != "" && strings.Contains(campaign, pattern) {
			return true
		}
	}
	return false
}

func (a AdsAnalyzer) aggregate(rows []AdRow, w Window) AdsBundle {
	bundle := AdsBundle{}
	spendByDate := map[string]float64{}
	byCampaign := map[string]*CampaignStats{}

	for _, r := range rows {
		bundle.TotalSpend += r.Spend
		bundle.Impressions += r.Impressions
		bundle.Clicks += r.Clicks
		spendByDate[r.Date] += r.Spend

		stats, ok := byCampaign[r.Campaign]
		if !ok {
			stats = &CampaignStats{Campaign: r.Campaign}
			byCampaign[r.Campaign] = stats
		}
		stats.Spend += r.Spend
		stats.Impressions += r.Impressions
		stats.Clicks += r.Clicks
	}

	bundle.ActiveCampaigns = len(byCampaign)
	bundle.CPM = SafeDiv(bundle.TotalSpend, float64(bundle.Impressions)) * 1000
	bundle.CTR = SafeRate(float64(bundle.Clicks), float64(bundle.Impressions))
	bundle.CPC = SafeDiv(bundle.TotalSpend, float64(bundle.Clicks))
	bundle.DailySpend = BuildDailySeries(w, spendByDate)

	bundle.Campaigns = make([]CampaignStats, 0, len(byCampaign))
	for _, stats := range byCampaign {
		stats.CTR = SafeRate(float64(stats.Clicks), float64(stats.Impressions))
		stats.CPC = SafeDiv(stats.Spend, float64(stats.Clicks))
		bundle.Campaigns = append(bundle.Campaigns, *stats)
	}
	sort.Slice(bundle.Campaigns, func(i, j int) bool {
		if bundle.Campaigns[i].Spend != bundle.Campaigns[j].Spend {
			return bundle.Campaigns[i].Spend > bundle.Campaigns[j].Spend
		}
		return bundle.Campaigns[i].Campaign < bundle.Campaigns[j].Campaign
	})
	return bundle
}
