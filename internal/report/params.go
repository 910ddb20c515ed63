package report

import (
	"time"

	"github.com/brainonstrategy/bos-dashboard/internal/insights"
	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
)

// Lead update types: which date an attribution lead is reported under.
// "opportunity" defers to whatever the opportunity update type is.
const (
	LeadUpdateAcquisition = "acquisition"
	LeadUpdateOpportunity = "opportunity"
)

// Params selects the reporting window and how opportunities and leads are
// dated. Zero values fall back to the default two-week window ending
// yesterday, dated by creation and acquisition.
type Params struct {
	StartDate             string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate               string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	OpportunityUpdateType string `json:"opportunity_update_type" validate:"omitempty,oneof=createdAt lastStageChangeAt"`
	LeadUpdateType        string `json:"lead_update_type" validate:"omitempty,oneof=acquisition opportunity"`
}

// withDefaults fills the unset fields. now is injected for tests.
func (p Params) withDefaults(now time.Time) Params {
	if p.StartDate == "" {
		p.StartDate = now.AddDate(0, 0, -14).Format("2006-01-02")
	}
	if p.EndDate == "" {
		p.EndDate = now.AddDate(0, 0, -1).Format("2006-01-02")
	}
	if p.OpportunityUpdateType == "" {
		p.OpportunityUpdateType = insights.UpdateByCreation
	}
	if p.LeadUpdateType == "" {
		p.LeadUpdateType = LeadUpdateAcquisition
	}
	return p
}

func (p Params) validate() error {
	switch p.OpportunityUpdateType {
	case insights.UpdateByCreation, insights.UpdateByStageChange:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "opportunity update type must be createdAt or lastStageChangeAt")
	}
	switch p.LeadUpdateType {
	case LeadUpdateAcquisition, LeadUpdateOpportunity:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "lead update type must be acquisition or opportunity")
	}
	return nil
}

// attributionUpdateField resolves the lead update type into the concrete
// date field the attribution connector and analyzer use.
func (p Params) attributionUpdateField() string {
	if p.LeadUpdateType == LeadUpdateOpportunity {
		return p.OpportunityUpdateType
	}
	return insights.UpdateByAcquisition
}
