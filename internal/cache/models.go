package cache

// One model per cached source table. Columns mirror what the connectors
// fetch; dates are stored as plain YYYY-MM-DD strings so range queries are
// simple lexicographic BETWEENs.

const (
	TableFacebook     = "facebook_data"
	TableGoogleAds    = "google_ads_data"
	TableTikTok       = "tiktok_data"
	TableAnalytics    = "analytics_data"
	TableOpportunity  = "opp_data"
	TableAttribution  = "attribution_data"
	TableTransactions = "transaction_data"
)

// Natural keys per table. Ad-level platforms key on the full sub-dimension
// so ad-level rows are not collapsed on re-fetch.
var (
	FacebookKey     = []string{"date", "campaign", "adset_name", "ad_name"}
	GoogleAdsKey    = []string{"date", "campaign", "keyword_text"}
	TikTokKey       = []string{"date", "campaign", "ad_group_name", "ad_name"}
	AnalyticsKey    = []string{"date", "campaign", "source", "page_path"}
	OpportunityKey  = []string{"id"}
	AttributionKey  = []string{"id"}
	TransactionsKey = []string{"id"}
)

type FacebookRow struct {
	Datasource     string  `gorm:"column:datasource" json:"datasource"`
	Source         string  `gorm:"column:source" json:"source"`
	AccountID      string  `gorm:"column:account_id" json:"account_id"`
	AccountName    string  `gorm:"column:account_name" json:"account_name"`
	Date           string  `gorm:"column:date" json:"date"`
	Campaign       string  `gorm:"column:campaign" json:"campaign"`
	AdsetName      string  `gorm:"column:adset_name" json:"adset_name"`
	AdName         string  `gorm:"column:ad_name" json:"ad_name"`
	Spend          float64 `gorm:"column:spend" json:"spend"`
	Impressions    int64   `gorm:"column:impressions" json:"impressions"`
	OutboundClicks int64   `gorm:"column:outbound_clicks" json:"outbound_clicks"`
}

func (FacebookRow) TableName() string { return TableFacebook }

func (r FacebookRow) ColumnNames() []string {
	return []string{"datasource", "source", "account_id", "account_name", "date", "campaign", "adset_name", "ad_name", "spend", "impressions", "outbound_clicks"}
}

func (r FacebookRow) ColumnValues() []any {
	return []any{r.Datasource, r.Source, r.AccountID, r.AccountName, r.Date, r.Campaign, r.AdsetName, r.AdName, r.Spend, r.Impressions, r.OutboundClicks}
}

type GoogleAdsRow struct {
	Datasource  string  `gorm:"column:datasource" json:"datasource"`
	Source      string  `gorm:"column:source" json:"source"`
	AccountID   string  `gorm:"column:account_id" json:"account_id"`
	AccountName string  `gorm:"column:account_name" json:"account_name"`
	Date        string  `gorm:"column:date" json:"date"`
	Campaign    string  `gorm:"column:campaign" json:"campaign"`
	Spend       float64 `gorm:"column:spend" json:"spend"`
	Impressions int64   `gorm:"column:impressions" json:"impressions"`
	Clicks      int64   `gorm:"column:clicks" json:"clicks"`
	KeywordText string  `gorm:"column:keyword_text" json:"keyword_text"`
}

func (GoogleAdsRow) TableName() string { return TableGoogleAds }

func (r GoogleAdsRow) ColumnNames() []string {
	return []string{"datasource", "source", "account_id", "account_name", "date", "campaign", "spend", "impressions", "clicks", "keyword_text"}
}

func (r GoogleAdsRow) ColumnValues() []any {
	return []any{r.Datasource, r.Source, r.AccountID, r.AccountName, r.Date, r.Campaign, r.Spend, r.Impressions, r.Clicks, r.KeywordText}
}

type TikTokRow struct {
	Datasource  string  `gorm:"column:datasource" json:"datasource"`
	Source      string  `gorm:"column:source" json:"source"`
	AccountID   string  `gorm:"column:account_id" json:"account_id"`
	AccountName string  `gorm:"column:account_name" json:"account_name"`
	Date        string  `gorm:"column:date" json:"date"`
	Campaign    string  `gorm:"column:campaign" json:"campaign"`
	AdGroupName string  `gorm:"column:ad_group_name" json:"ad_group_name"`
	AdName      string  `gorm:"column:ad_name" json:"ad_name"`
	Spend       float64 `gorm:"column:spend" json:"spend"`
	Impressions int64   `gorm:"column:impressions" json:"impressions"`
	Clicks      int64   `gorm:"column:clicks" json:"clicks"`
}

func (TikTokRow) TableName() string { return TableTikTok }

func (r TikTokRow) ColumnNames() []string {
	return []string{"datasource", "source", "account_id", "account_name", "date", "campaign", "ad_group_name", "ad_name", "spend", "impressions", "clicks"}
}

func (r TikTokRow) ColumnValues() []any {
	return []any{r.Datasource, r.Source, r.AccountID, r.AccountName, r.Date, r.Campaign, r.AdGroupName, r.AdName, r.Spend, r.Impressions, r.Clicks}
}

type AnalyticsRow struct {
	Datasource         string  `gorm:"column:datasource" json:"datasource"`
	Source             string  `gorm:"column:source" json:"source"`
	AccountID          string  `gorm:"column:account_id" json:"account_id"`
	AccountName        string  `gorm:"column:account_name" json:"account_name"`
	Date               string  `gorm:"column:date" json:"date"`
	Campaign           string  `gorm:"column:campaign" json:"campaign"`
	Sessions           int64   `gorm:"column:sessions" json:"sessions"`
	EngagedSessions    int64   `gorm:"column:engaged_sessions" json:"engaged_sessions"`
	ActiveUsers        int64   `gorm:"column:active_users" json:"active_users"`
	PagePath           string  `gorm:"column:page_path" json:"page_path"`
	EngagementDuration float64 `gorm:"column:user_engagement_duration" json:"user_engagement_duration"`
}

func (AnalyticsRow) TableName() string { return TableAnalytics }

func (r AnalyticsRow) ColumnNames() []string {
	return []string{"datasource", "source", "account_id", "account_name", "date", "campaign", "sessions", "engaged_sessions", "active_users", "page_path", "user_engagement_duration"}
}

func (r AnalyticsRow) ColumnValues() []any {
	return []any{r.Datasource, r.Source, r.AccountID, r.AccountName, r.Date, r.Campaign, r.Sessions, r.EngagedSessions, r.ActiveUsers, r.PagePath, r.EngagementDuration}
}

type OpportunityRow struct {
	ID                string  `gorm:"column:id" json:"id"`
	CreatedAt         string  `gorm:"column:created_at" json:"created_at"`
	LastStageChangeAt string  `gorm:"column:last_stage_change_at" json:"last_stage_change_at"`
	MonetaryValue     float64 `gorm:"column:monetary_value" json:"monetary_value"`
	Salesperson       string  `gorm:"column:salesperson" json:"salesperson"`
	Stage             string  `gorm:"column:stage" json:"stage"`
}

func (OpportunityRow) TableName() string { return TableOpportunity }

func (r OpportunityRow) ColumnNames() []string {
	return []string{"id", "created_at", "last_stage_change_at", "monetary_value", "salesperson", "stage"}
}

func (r OpportunityRow) ColumnValues() []any {
	return []any{r.ID, r.CreatedAt, r.LastStageChangeAt, r.MonetaryValue, r.Salesperson, r.Stage}
}

type AttributionRow struct {
	ID                string  `gorm:"column:id" json:"id"`
	CreatedAt         string  `gorm:"column:created_at" json:"created_at"`
	LastStageChangeAt string  `gorm:"column:last_stage_change_at" json:"last_stage_change_at"`
	AcquisitionDate   string  `gorm:"column:acquisition_date" json:"acquisition_date"`
	Source            string  `gorm:"column:source" json:"source"`
	PipelineStageName string  `gorm:"column:pipeline_stage_name" json:"pipeline_stage_name"`
	MonetaryValue     float64 `gorm:"column:monetary_value" json:"monetary_value"`
	UTMUpdatedAt      string  `gorm:"column:utm_updated_at" json:"utm_updated_at"`
	CampaignID        string  `gorm:"column:campaign_id" json:"campaign_id"`
	CampaignSource    string  `gorm:"column:campaign_source" json:"campaign_source"`
	CampaignMedium    string  `gorm:"column:campaign_medium" json:"campaign_medium"`
	CampaignName      string  `gorm:"column:campaign_name" json:"campaign_name"`
	CampaignTerm      string  `gorm:"column:campaign_term" json:"campaign_term"`
	CampaignContent   string  `gorm:"column:campaign_content" json:"campaign_content"`
}

func (AttributionRow) TableName() string { return TableAttribution }

func (r AttributionRow) ColumnNames() []string {
	return []string{"id", "created_at", "last_stage_change_at", "acquisition_date", "source", "pipeline_stage_name", "monetary_value", "utm_updated_at", "campaign_id", "campaign_source", "campaign_medium", "campaign_name", "campaign_term", "campaign_content"}
}

func (r AttributionRow) ColumnValues() []any {
	return []any{r.ID, r.CreatedAt, r.LastStageChangeAt, r.AcquisitionDate, r.Source, r.PipelineStageName, r.MonetaryValue, r.UTMUpdatedAt, r.CampaignID, r.CampaignSource, r.CampaignMedium, r.CampaignName, r.CampaignTerm, r.CampaignContent}
}

type TransactionRow struct {
	ID          string  `gorm:"column:id" json:"id"`
	Date        string  `gorm:"column:date" json:"date"`
	ProductName string  `gorm:"column:product_name" json:"product_name"`
	Amount      float64 `gorm:"column:amount" json:"amount"`
	Currency    string  `gorm:"column:currency" json:"currency"`
	Status      string  `gorm:"column:status" json:"status"`
}

func (TransactionRow) TableName() string { return TableTransactions }

func (r TransactionRow) ColumnNames() []string {
	return []string{"id", "date", "product_name", "amount", "currency", "status"}
}

func (r TransactionRow) ColumnValues() []any {
	return []any{r.ID, r.Date, r.ProductName, r.Amount, r.Currency, r.Status}
}
