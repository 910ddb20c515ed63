package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
	"github.com/brainonstrategy/bos-dashboard/pkg/db"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
	"github.com/brainonstrategy/bos-dashboard/pkg/logger"
)

// NotAvailable marks a date the CRM could not provide.
const NotAvailable = "N/A"

// Opportunity update-type column expressions. The update type arrives from
// the request, so it resolves through this whitelist rather than into the
// SQL text directly.
var opportunityDateColumns = map[string]string{
	"createdAt":         `o."createdAt"`,
	"lastStageChangeAt": `o."lastStageChangeAt"`,
}

var attributionDateExprs = map[string]string{
	"acquisitionDate":   `to_char(to_timestamp(NULLIF(ccf_date.value, '')::bigint / 1000), 'YYYY-MM-DD')`,
	"createdAt":         `o."createdAt"::date::text`,
	"lastStageChangeAt": `o."lastStageChangeAt"::date::text`,
}

// CRMClient runs the reporting queries against the remote CRM database.
type CRMClient struct {
	client *db.Client
	cfg    config.CRMConfig
	logg   *logger.Logger
}

func NewCRMClient(client *db.Client, cfg config.CRMConfig, logg *logger.Logger) *CRMClient {
	return &CRMClient{client: client, cfg: cfg, logg: logg}
}

type opportunityRecord struct {
	ID                string     `gorm:"column:id"`
	CreatedAt         *time.Time `gorm:"column:created_at"`
	LastStageChangeAt *time.Time `gorm:"column:last_stage_change_at"`
	MonetaryValue     float64    `gorm:"column:monetary_value"`
	Salesperson       string     `gorm:"column:salesperson"`
	Stage             string     `gorm:"column:stage"`
}

// FetchOpportunities pulls pipeline records updated in the window,
// selecting the date column by update type.
func (c *CRMClient) FetchOpportunities(ctx context.Context, updateType, dateFrom, dateTo string) ([]cache.OpportunityRow, error) {
	dateColumn, ok := opportunityDateColumns[updateType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown opportunity update type %q", updateType))
	}
	if c.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFetch, "CRM database is not configured")
	}

	query := fmt.Sprintf(`
		SELECT
			o.id AS id,
			o."createdAt" AS created_at,
			o."lastStageChangeAt" AS last_stage_change_at,
			COALESCE(o."monetaryValue", 0) AS monetary_value,
			COALESCE(u.name, '') AS salesperson,
			ops.name AS stage
		FROM opportunities o
		JOIN opportunity_pipeline_stages ops ON o."pipelineStageId" = ops.id
		JOIN users u ON o."assignedTo" = u.id
		WHERE o."locationId" = ?
		  AND ops."pipelineId" = ?
		  AND %s >= ?::timestamptz
		  AND %s <= ?::timestamptz`, dateColumn, dateColumn)

	var records []opportunityRecord
	err := c.client.Raw(ctx, query,
		c.cfg.LocationID, c.cfg.PipelineID,
		dateFrom+"T00:00:00.000Z", dateTo+"T23:59:59.999Z",
	).Scan(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, "querying opportunities")
	}

	rows := make([]cache.OpportunityRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.OpportunityRow{
			ID:                r.ID,
			CreatedAt:         dateOrNA(r.CreatedAt),
			LastStageChangeAt: backfillDate(r.LastStageChangeAt, r.CreatedAt),
			MonetaryValue:     r.MonetaryValue,
			Salesperson:       r.Salesperson,
			Stage:             r.Stage,
		})
	}
	return rows, nil
}

type attributionRecord struct {
	ID                string     `gorm:"column:id"`
	CreatedAt         *time.Time `gorm:"column:created_at"`
	LastStageChangeAt *time.Time `gorm:"column:last_stage_change_at"`
	AcquisitionDate   string     `gorm:"column:acquisition_date"`
	Source            string     `gorm:"column:source"`
	PipelineStageName string     `gorm:"column:pipeline_stage_name"`
	MonetaryValue     float64    `gorm:"column:monetary_value"`
	UTMUpdatedAt      string     `gorm:"column:utm_updated_at"`
	CampaignID        string     `gorm:"column:campaign_id"`
	CampaignSource    string     `gorm:"column:campaign_source"`
	CampaignMedium    string     `gorm:"column:campaign_medium"`
	CampaignName      string     `gorm:"column:campaign_name"`
	CampaignTerm      string     `gorm:"column:campaign_term"`
	CampaignContent   string     `gorm:"column:campaign_content"`
}

// FetchAttribution pulls opportunities joined with the contact custom
// fields that carry lead attribution. The window filter applies to the
// acquisition date, the creation date, or the stage-change date depending
// on the update type.
func (c *CRMClient) FetchAttribution(ctx context.Context, updateType, dateFrom, dateTo string) ([]cache.AttributionRow, error) {
	dateExpr, ok := attributionDateExprs[updateType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown attribution update type %q", updateType))
	}
	if c.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFetch, "CRM database is not configured")
	}

	cf := c.cfg.CustomFields
	query := fmt.Sprintf(`
		SELECT
			o.id AS id,
			o."createdAt" AS created_at,
			o."lastStageChangeAt" AS last_stage_change_at,
			COALESCE(ccf_date.value, '') AS acquisition_date,
			COALESCE(ccf_source.value, 'Non specificato') AS source,
			ops.name AS pipeline_stage_name,
			COALESCE(o."monetaryValue", 0) AS monetary_value,
			COALESCE(ccf_utm.value, '') AS utm_updated_at,
			COALESCE(ccf_campaign_id.value, '') AS campaign_id,
			COALESCE(ccf_campaign_source.value, '') AS campaign_source,
			COALESCE(ccf_campaign_medium.value, '') AS campaign_medium,
			COALESCE(ccf_campaign_name.value, '') AS campaign_name,
			COALESCE(ccf_campaign_term.value, '') AS campaign_term,
			COALESCE(ccf_campaign_content.value, '') AS campaign_content
		FROM opportunities o
		INNER JOIN opportunity_pipeline_stages ops ON o."pipelineStageId" = ops.id
		LEFT JOIN contacts c ON o."contactId" = c.id
		LEFT JOIN contact_custom_fields ccf_date ON c.id = ccf_date."contactId" AND ccf_date.id = ?
		LEFT JOIN contact_custom_fields ccf_source ON c.id = ccf_source."contactId" AND ccf_source.id = ?
		LEFT JOIN contact_custom_fields ccf_utm ON c.id = ccf_utm."contactId" AND ccf_utm.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_id ON c.id = ccf_campaign_id."contactId" AND ccf_campaign_id.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_source ON c.id = ccf_campaign_source."contactId" AND ccf_campaign_source.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_medium ON c.id = ccf_campaign_medium."contactId" AND ccf_campaign_medium.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_name ON c.id = ccf_campaign_name."contactId" AND ccf_campaign_name.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_term ON c.id = ccf_campaign_term."contactId" AND ccf_campaign_term.id = ?
		LEFT JOIN contact_custom_fields ccf_campaign_content ON c.id = ccf_campaign_content."contactId" AND ccf_campaign_content.id = ?
		WHERE o."locationId" = ?
		  AND ops."pipelineId" = ?
		  AND %s BETWEEN ? AND ?`, dateExpr)

	var records []attributionRecord
	err := c.client.Raw(ctx, query,
		cf.AcquisitionDate, cf.Source, cf.UTMUpdatedAt,
		cf.CampaignID, cf.CampaignSource, cf.CampaignMedium,
		cf.CampaignName, cf.CampaignTerm, cf.CampaignContent,
		c.cfg.LocationID, c.cfg.PipelineID,
		dateFrom, dateTo,
	).Scan(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, "querying attribution")
	}

	rows := make([]cache.AttributionRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.AttributionRow{
			ID:                r.ID,
			CreatedAt:         dateOrNA(r.CreatedAt),
			LastStageChangeAt: backfillDate(r.LastStageChangeAt, r.CreatedAt),
			AcquisitionDate:   epochMillisToDate(r.AcquisitionDate),
			Source:            r.Source,
			PipelineStageName: r.PipelineStageName,
			MonetaryValue:     r.MonetaryValue,
			UTMUpdatedAt:      epochMillisToDate(r.UTMUpdatedAt),
			CampaignID:        r.CampaignID,
			CampaignSource:    r.CampaignSource,
			CampaignMedium:    r.CampaignMedium,
			CampaignName:      r.CampaignName,
			CampaignTerm:      r.CampaignTerm,
			CampaignContent:   r.CampaignContent,
		})
	}
	return rows, nil
}

type transactionRecord struct {
	ID       string     `gorm:"column:id"`
	Date     *time.Time `gorm:"column:date"`
	Product  string     `gorm:"column:product_name"`
	Amount   float64    `gorm:"column:amount"`
	Currency string     `gorm:"column:currency"`
	Status   string     `gorm:"column:status"`
}

// FetchTransactions pulls the payment records created in the window.
func (c *CRMClient) FetchTransactions(ctx context.Context, dateFrom, dateTo string) ([]cache.TransactionRow, error) {
	if c.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeFetch, "CRM database is not configured")
	}

	query := `
		SELECT
			pay."contactId" AS id,
			pay."createdAt" AS date,
			COALESCE(pay."entitySourceName", '') AS product_name,
			COALESCE(pay.amount, 0) AS amount,
			COALESCE(pay.currency, '') AS currency,
			COALESCE(pay.status, '') AS status
		FROM payment_transactions pay
		WHERE pay."altId" = ?
		  AND pay."createdAt" BETWEEN ?::timestamptz AND ?::timestamptz`

	var records []transactionRecord
	err := c.client.Raw(ctx, query,
		c.cfg.LocationID,
		dateFrom+"T00:00:00.000Z", dateTo+"T23:59:59.999Z",
	).Scan(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, "querying transactions")
	}

	rows := make([]cache.TransactionRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, cache.TransactionRow{
			ID:          r.ID,
			Date:        dateOrNA(r.Date),
			ProductName: r.Product,
			Amount:      r.Amount,
			Currency:    r.Currency,
			Status:      r.Status,
		})
	}
	return rows, nil
}

func dateOrNA(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.UTC().Format("2006-01-02")
}

// backfillDate substitutes the creation date when a stage-change date was
// never recorded, so every row can be filtered by either update type.
func backfillDate(t, fallback *time.Time) string {
	if t == nil || t.IsZero() {
		return dateOrNA(fallback)
	}
	return dateOrNA(t)
}

// epochMillisToDate renders a CRM custom-field value (epoch milliseconds
// stored as text) as a calendar date, or the not-available sentinel.
func epochMillisToDate(value string) string {
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil || millis <= 0 {
		return NotAvailable
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}
