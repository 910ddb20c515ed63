package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
)

func adsConfig(baseURL string) config.AdsAPIConfig {
	cfg := config.AdsAPIConfig{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		FacebookFields:  "datasource,account_name,date,campaign,spend,impressions,outbound_clicks_outbound_click",
		GoogleAdsFields: "datasource,account_name,date,campaign,spend,impressions,clicks",
	}
	return cfg
}

func TestFetchFacebookBuildsRequestAndNormalizes(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"datasource":"facebook","account_name":"Main","date":"2024-01-05T00:00:00","campaign":"A","spend":12.5,"impressions":1000,"outbound_clicks_outbound_click":40},
			{"datasource":"facebook","account_name":"Main","date":"2024-01-06","campaign":"B","spend":7.5,"impressions":500,"outbound_clicks_outbound_click":10}
		]}`))
	}))
	defer server.Close()

	client := NewAdsClient(adsConfig(server.URL+"/"), nil)
	rows, err := client.FetchFacebook(context.Background(), "2024-01-01", "2024-01-14")
	if err != nil {
		t.Fatalf("fetch facebook: %v", err)
	}

	if gotPath != "/facebook" {
		t.Fatalf("expected /facebook path, got %s", gotPath)
	}
	if gotQuery["api_key"] != "test-key" || gotQuery["_renderer"] != "json" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
	if gotQuery["date_from"] != "2024-01-01" || gotQuery["date_to"] != "2024-01-14" {
		t.Fatalf("unexpected window in query %v", gotQuery)
	}
	if gotQuery["fields"] == "" {
		t.Fatalf("fields parameter missing")
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date != "2024-01-05" {
		t.Fatalf("expected timestamp reduced to a date, got %q", rows[0].Date)
	}
	if rows[0].OutboundClicks != 40 || rows[0].Spend != 12.5 {
		t.Fatalf("unexpected row mapping %+v", rows[0])
	}
}

func TestFetchReportErrorsAreFetchCoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewAdsClient(adsConfig(server.URL+"/"), nil)
	_, err := client.FetchGoogleAds(context.Background(), "2024-01-01", "2024-01-14")
	if err == nil {
		t.Fatalf("expected error from 502 response")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeFetch {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !pkgerrors.MetadataFor(typed.Code()).Retryable {
		t.Fatalf("fetch errors must be retryable")
	}
}

func TestFetchReportRejectsMissingDataArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer server.Close()

	client := NewAdsClient(adsConfig(server.URL+"/"), nil)
	_, err := client.FetchFacebook(context.Background(), "2024-01-01", "2024-01-14")
	if err == nil {
		t.Fatalf("expected error for missing data array")
	}
}

func TestFetchReportRequiresBaseURL(t *testing.T) {
	client := NewAdsClient(config.AdsAPIConfig{}, nil)
	_, err := client.FetchFacebook(context.Background(), "2024-01-01", "2024-01-14")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeFetch {
		t.Fatalf("expected fetch error without base URL, got %v", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-05":                "2024-01-05",
		"2024-01-05T10:30:00":       "2024-01-05",
		"2024-01-05T10:30:00Z":      "2024-01-05",
		"2024-01-05 10:30:00":       "2024-01-05",
		"2024-01-05T10:30:00+02:00": "2024-01-05",
		"N/A":                       "N/A",
		"":                          "",
	}
	for in, want := range cases {
		if got := normalizeDate(in); got != want {
			t.Fatalf("normalizeDate(%q): expected %q, got %q", in, want, got)
		}
	}
}
