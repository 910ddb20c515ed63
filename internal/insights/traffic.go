package insights

import (
	"sort"
	"strings"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
)

// DisplayThreshold is the minimum share (percent of sessions) a bucket
// needs to appear on its own; smaller slices are folded into the "other"
// group at render time.
const DisplayThreshold = 3.0

// Channel bucket names. A session source is assigned to the first rule
// whose substring matches, so the order below is load-bearing: "googleads"
// must win over the plain "google" organic bucket.
const (
	ChannelGoogleAds = "google_ads"
	ChannelGoogle    = "google"
	ChannelMetaAds   = "meta_ads"
	ChannelYouTube   = "youtube"
	ChannelDirect    = "direct"
	ChannelUnknown   = "unknown"
	ChannelOther     = "other"
)

var channelRules = []struct {
	name       string
	substrings []string
}{
	{ChannelGoogleAds, []string{"googleads"}},
	{ChannelGoogle, []string{"google"}},
	{ChannelMetaAds, []string{"facebook", "instagram"}},
	{ChannelYouTube, []string{"youtube"}},
	{ChannelDirect, []string{"(direct)"}},
	{ChannelUnknown, []string{"(not set)"}},
}

// ClassifyChannel maps a raw traffic source string onto a channel bucket,
// first match wins.
func ClassifyChannel(source string) string {
	for _, rule := range channelRules {
		for _, sub := range rule.substrings {
			if strings.Contains(source, sub) {
				return rule.name
			}
		}
	}
	return ChannelOther
}

// ChannelShare is one slice of the session distribution.
type ChannelShare struct {
	Channel    string  `json:"channel"`
	Sessions   int64   `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// CampaignShare is one slice of the per-campaign session distribution.
type CampaignShare struct {
	Campaign   string  `json:"campaign"`
	Sessions   int64   `json:"sessions"`
	Percentage float64 `json:"percentage"`
}

// TrafficBundle is the web-analytics aggregate for one window.
type TrafficBundle struct {
	ActiveUsers        int64   `json:"active_users"`
	Sessions           int64   `json:"sessions"`
	EngagedSessions    int64   `json:"engaged_sessions"`
	EngagementDuration float64 `json:"engagement_duration"`

	SessionsPerUser    float64 `json:"sessions_per_user"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	EngagementRate     float64 `json:"engagement_rate"`
	DurationPerUser    float64 `json:"duration_per_user"`

	DailyActiveUsers []TimeSeriesPoint `json:"daily_active_users"`
	Channels         []ChannelShare    `json:"channels"`
	Campaigns        []CampaignShare   `json:"campaigns"`
}

// TrafficAnalyzer aggregates web-analytics rows into per-window bundles.
type TrafficAnalyzer struct {
	Datasource  string
	AccountName string
	Windows     WindowPair
}

func (a TrafficAnalyzer) Analyze(rows []cache.AnalyticsRow) (current, comparison TrafficBundle) {
	return a.aggregate(a.filter(rows, a.Windows.Current), a.Windows.Current),
		a.aggregate(a.filter(rows, a.Windows.Comparison), a.Windows.Comparison)
}

func (a TrafficAnalyzer) filter(rows []cache.AnalyticsRow, w Window) []cache.AnalyticsRow {
	out := make([]cache.AnalyticsRow, 0, len(rows))
	for _, r := range rows {
		if a.Datasource != "" && r.Datasource != a.Datasource {
			continue
		}
		if a.AccountName != "" && r.AccountName != a.AccountName {
			continue
		}
		if !w.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a TrafficAnalyzer) aggregate(rows []cache.AnalyticsRow, w Window) TrafficBundle {
	bundle := TrafficBundle{}
	usersByDate := map[string]float64{}
	sessionsByChannel := map[string]int64{}
	sessionsByCampaign := map[string]int64{}

	for _, r := range rows {
		bundle.ActiveUsers += r.ActiveUsers
		bundle.Sessions += r.Sessions
		bundle.EngagedSessions += r.EngagedSessions
		bundle.EngagementDuration += r.EngagementDuration
		usersByDate[r.Date] += float64(r.ActiveUsers)
		sessionsByChannel[ClassifyChannel(r.Source)] += r.Sessions
		sessionsByCampaign[r.Campaign] += r.Sessions
	}

	bundle.SessionsPerUser = SafeDiv(float64(bundle.Sessions), float64(bundle.ActiveUsers))
	bundle.AvgSessionDuration = SafeDiv(bundle.EngagementDuration, float64(bundle.Sessions))
	bundle.EngagementRate = SafeRate(float64(bundle.EngagedSessions), float64(bundle.Sessions))
	bundle.DurationPerUser = SafeDiv(bundle.EngagementDuration, float64(bundle.ActiveUsers))
	bundle.DailyActiveUsers = BuildDailySeries(w, usersByDate)

	bundle.Channels = make([]ChannelShare, 0, len(sessionsByChannel))
	for channel, sessions := range sessionsByChannel {
		bundle.Channels = append(bundle.Channels, ChannelShare{
			Channel:    channel,
			Sessions:   sessions,
			Percentage: SafeRate(float64(sessions), float64(bundle.Sessions)),
		})
	}
	sort.Slice(bundle.Channels, func(i, j int) bool {
		if bundle.Channels[i].Sessions != bundle.Channels[j].Sessions {
			return bundle.Channels[i].Sessions > bundle.Channels[j].Sessions
		}
		return bundle.Channels[i].Channel < bundle.Channels[j].Channel
	})

	bundle.Campaigns = make([]CampaignShare, 0, len(sessionsByCampaign))
	for campaign, sessions := range sessionsByCampaign {
		bundle.Campaigns = append(bundle.Campaigns, CampaignShare{
			Campaign:   campaign,
			Sessions:   sessions,
			Percentage: SafeRate(float64(sessions), float64(bundle.Sessions)),
		})
	}
	sort.Slice(bundle.Campaigns, func(i, j int) bool {
		if bundle.Campaigns[i].Sessions != bundle.Campaigns[j].Sessions {
			return bundle.Campaigns[i].Sessions > bundle.Campaigns[j].Sessions
		}
		return bundle.Campaigns[i].Campaign < bundle.Campaigns[j].Campaign
	})

	return bundle
}

// FoldBelowThreshold collapses every channel slice under the display
// threshold into a single trailing "other" entry.
func FoldBelowThreshold(shares []ChannelShare) []ChannelShare {
	out := make([]ChannelShare, 0, len(shares))
	folded := ChannelShare{Channel: ChannelOther}
	for _, share := range shares {
		if share.Channel != ChannelOther && share.Percentage >= DisplayThreshold {
			out = append(out, share)
			continue
		}
		folded.Sessions += share.Sessions
		folded.Percentage += share.Percentage
	}
	if folded.Sessions > 0 {
		out = append(out, folded)
	}
	return out
}
