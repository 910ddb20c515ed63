package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "bos"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	CacheDB  CacheDBConfig
	CRM      CRMConfig
	AdsAPI   AdsAPIConfig
	Accounts AccountsConfig
	Redis    RedisConfig
	Stages   StagesConfig
	Team     TeamConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.CRM.ensureDSN(); err != nil {
		return nil, err
	}
	cfg.Stages.applyDefaults()
	cfg.Team.applyDefaults()
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOS_APP_ENV" default:"development"`
	Port         string `envconfig:"BOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CacheDBConfig points at the embedded SQLite database that caches raw
// source rows between refreshes.
type CacheDBConfig struct {
	Path string `envconfig:"BOS_CACHE_DB_PATH" default:"local_data.db"`
}

// CRMConfig describes the remote CRM database plus the tenant and pipeline
// the dashboard is scoped to. The connection pool is intentionally small:
// every refresh is a single sequential pass.
type CRMConfig struct {
	DSN    string `envconfig:"BOS_CRM_DSN"`
	Driver string `envconfig:"BOS_CRM_DRIVER" default:"postgres"`

	Host     string `envconfig:"BOS_CRM_HOST"`
	Port     int    `envconfig:"BOS_CRM_PORT" default:"5432"`
	User     string `envconfig:"BOS_CRM_USER"`
	Password string `envconfig:"BOS_CRM_PASSWORD"`
	Name     string `envconfig:"BOS_CRM_NAME"`
	SSLMode  string `envconfig:"BOS_CRM_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOS_CRM_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"BOS_CRM_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"BOS_CRM_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOS_CRM_CONN_MAX_IDLE_TIME" default:"10m"`

	LocationID string `envconfig:"BOS_CRM_LOCATION_ID"`
	PipelineID string `envconfig:"BOS_CRM_PIPELINE_ID"`

	CustomFields CustomFieldIDs
}

// CustomFieldIDs are the contact custom-field identifiers joined by the
// attribution query. They are tenant-specific external configuration.
type CustomFieldIDs struct {
	AcquisitionDate string `envconfig:"BOS_CRM_CF_ACQUISITION_DATE"`
	Source          string `envconfig:"BOS_CRM_CF_SOURCE"`
	UTMUpdatedAt    string `envconfig:"BOS_CRM_CF_UTM_UPDATED_AT"`
	CampaignID      string `envconfig:"BOS_CRM_CF_CAMPAIGN_ID"`
	CampaignSource  string `envconfig:"BOS_CRM_CF_CAMPAIGN_SOURCE"`
	CampaignMedium  string `envconfig:"BOS_CRM_CF_CAMPAIGN_MEDIUM"`
	CampaignName    string `envconfig:"BOS_CRM_CF_CAMPAIGN_NAME"`
	CampaignTerm    string `envconfig:"BOS_CRM_CF_CAMPAIGN_TERM"`
	CampaignContent string `envconfig:"BOS_CRM_CF_CAMPAIGN_CONTENT"`
}

// AdsAPIConfig configures the ad-platform reporting gateway.
type AdsAPIConfig struct {
	BaseURL string        `envconfig:"BOS_ADS_API_BASE_URL"`
	APIKey  string        `envconfig:"BOS_ADS_API_KEY"`
	Timeout time.Duration `envconfig:"BOS_ADS_API_TIMEOUT" default:"60s"`

	FacebookFields  string `envconfig:"BOS_ADS_FIELDS_FACEBOOK" default:"datasource,source,account_id,account_name,date,campaign,adset_name,ad_name,spend,impressions,outbound_clicks_outbound_click"`
	GoogleAdsFields string `envconfig:"BOS_ADS_FIELDS_GOOGLE_ADS" default:"datasource,source,account_id,account_name,date,campaign,spend,impressions,clicks,keyword_text"`
	TikTokFields    string `envconfig:"BOS_ADS_FIELDS_TIKTOK" default:"datasource,source,account_id,account_name,date,campaign,ad_group_name,ad_name,spend,impressions,clicks"`
	AnalyticsFields string `envconfig:"BOS_ADS_FIELDS_ANALYTICS" default:"datasource,source,account_id,account_name,date,campaign,sessions,engaged_sessions,active_users,page_path,user_engagement_duration"`
}

// AccountsConfig holds the per-domain identity filters applied before any
// aggregation: the account each analyzer is scoped to and the campaign
// substrings excluded as internal traffic.
type AccountsConfig struct {
	MetaAccount      string   `envconfig:"BOS_ACCOUNT_META"`
	GoogleAdsAccount string   `envconfig:"BOS_ACCOUNT_GOOGLE_ADS"`
	TikTokAccount    string   `envconfig:"BOS_ACCOUNT_TIKTOK"`
	AnalyticsAccount string   `envconfig:"BOS_ACCOUNT_ANALYTICS"`
	ExcludeCampaigns []string `envconfig:"BOS_EXCLUDE_CAMPAIGNS" default:"[HR],DENTALAI"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOS_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"BOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOS_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"BOS_REDIS_REFRESH_LOCK_TTL" default:"5m"`
}

// Enabled reports whether a Redis endpoint was configured. Without one the
// refresh lock degrades to best-effort in-process behavior.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

func (c *CRMConfig) ensureDSN() error {
	if c.DSN != "" {
		return nil
	}
	if c.Host == "" || c.User == "" || c.Name == "" {
		// No CRM configured at all is allowed; the connectors will
		// surface it as a fetch warning instead.
		return nil
	}

	userInfo := url.User(c.User)
	if c.Password != "" {
		userInfo = url.UserPassword(c.User, c.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	if c.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}

	c.DSN = u.String()
	return nil
}
