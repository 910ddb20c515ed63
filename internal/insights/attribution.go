package insights

import (
	"sort"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
)

// Attribution update types: which date a lead is reported under.
const (
	UpdateByAcquisition = "acquisitionDate"
)

// SourceFunnel is one traffic source's lead funnel.
type SourceFunnel struct {
	Source    string `json:"source"`
	Leads     int    `json:"leads"`
	Qualified int    `json:"qualified"`
	Won       int    `json:"won"`
}

// AttributionBundle is the per-source funnel aggregate for one window.
type AttributionBundle struct {
	Leads     int            `json:"leads"`
	Qualified int            `json:"qualified"`
	Won       int            `json:"won"`
	Sources   []SourceFunnel `json:"sources"`
}

// AttributionAnalyzer buckets CRM leads by their literal source string
// crossed with stage group. Rows with an unrecognized stage label or no
// source attribution are skipped: they cannot be placed in the funnel.
type AttributionAnalyzer struct {
	Windows     WindowPair
	Stages      *StageGroups
	UpdateField string
}

func (a AttributionAnalyzer) Analyze(rows []cache.AttributionRow) (current, comparison AttributionBundle) {
	return a.aggregate(a.filter(rows, a.Windows.Current)),
		a.aggregate(a.filter(rows, a.Windows.Comparison))
}

func (a AttributionAnalyzer) rowDate(r cache.AttributionRow) string {
	switch a.UpdateField {
	case UpdateByStageChange:
		return r.LastStageChangeAt
	case UpdateByCreation:
		return r.CreatedAt
	default:
		return r.AcquisitionDate
	}
}

func (a AttributionAnalyzer) filter(rows []cache.AttributionRow, w Window) []cache.AttributionRow {
	out := make([]cache.AttributionRow, 0, len(rows))
	for _, r := range rows {
		if r.Source == "" {
			continue
		}
		if !a.Stages.IsKnown(r.PipelineStageName) {
			continue
		}
		if !w.Contains(a.rowDate(r)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a AttributionAnalyzer) aggregate(rows []cache.AttributionRow) AttributionBundle {
	bundle := AttributionBundle{}
	bySource := map[string]*SourceFunnel{}

	for _, r := range rows {
		funnel := bySource[r.Source]
		if funnel == nil {
			funnel = &SourceFunnel{Source: r.Source}
			bySource[r.Source] = funnel
		}
		bundle.Leads++
		funnel.Leads++
		if a.Stages.IsQualified(r.PipelineStageName) {
			bundle.Qualified++
			funnel.Qualified++
		}
		if a.Stages.IsWon(r.PipelineStageName) {
			bundle.Won++
			funnel.Won++
		}
	}

	bundle.Sources = make([]SourceFunnel, 0, len(bySource))
	for _, funnel := range bySource {
		bundle.Sources = append(bundle.Sources, *funnel)
	}
	sort.Slice(bundle.Sources, func(i, j int) bool {
		if bundle.Sources[i].Leads != bundle.Sources[j].Leads {
			return bundle.Sources[i].Leads > bundle.Sources[j].Leads
		}
		return bundle.Sources[i].Source < bundle.Sources[j].Source
	})
	return bundle
}
