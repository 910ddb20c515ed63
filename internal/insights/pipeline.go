package insights

import (
	"sort"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
)

// Opportunity update types: which date an opportunity is reported under.
const (
	UpdateByCreation    = "createdAt"
	UpdateByStageChange = "lastStageChangeAt"
)

// StageCount is one row of the lost-opportunity table.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// SalespersonStats is the per-salesperson slice of the pipeline, split by
// role for the setter/closer views.
type SalespersonStats struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Total     int     `json:"total"`
	Qualified int     `json:"qualified"`
	Won       int     `json:"won"`
	Revenue   float64 `json:"revenue"`
	WinRate   float64 `json:"win_rate"`
}

const (
	RoleSetter = "setter"
	RoleCloser = "closer"
	RoleOther  = "other"
)

// PipelineBundle is the sales-funnel aggregate for one window.
type PipelineBundle struct {
	Total             int `json:"total"`
	ToQualify         int `json:"to_qualify"`
	Qualified         int `json:"qualified"`
	Won               int `json:"won"`
	LostSetting       int `json:"lost_setting"`
	LostClosing       int `json:"lost_closing"`
	InProgressSetting int `json:"in_progress_setting"`
	InProgressClosing int `json:"in_progress_closing"`

	Revenue float64 `json:"revenue"`

	QualificationRate float64 `json:"qualification_rate"`
	WinRate           float64 `json:"win_rate"`
	QualifiedPerDay   float64 `json:"qualified_per_day"`
	WonPerDay         float64 `json:"won_per_day"`

	LostByStage    []StageCount       `json:"lost_by_stage"`
	DailyCreated   []TimeSeriesPoint  `json:"daily_created"`
	DailyQualified []TimeSeriesPoint  `json:"daily_qualified"`
	DailyWon       []TimeSeriesPoint  `json:"daily_won"`
	Salespeople    []SalespersonStats `json:"salespeople"`
}

// PipelineAnalyzer aggregates CRM opportunities into per-window funnel
// bundles. UpdateField selects which date an opportunity is reported
// under: its creation date or its last stage change.
type PipelineAnalyzer struct {
	Windows     WindowPair
	Stages      *StageGroups
	Team        config.TeamConfig
	UpdateField string
}

func (a PipelineAnalyzer) Analyze(rows []cache.OpportunityRow) (current, comparison PipelineBundle) {
	return a.aggregate(a.filter(rows, a.Windows.Current), a.Windows.Current),
		a.aggregate(a.filter(rows, a.Windows.Comparison), a.Windows.Comparison)
}

func (a PipelineAnalyzer) rowDate(r cache.OpportunityRow) string {
	if a.UpdateField == UpdateByStageChange {
		return r.LastStageChangeAt
	}
	return r.CreatedAt
}

func (a PipelineAnalyzer) filter(rows []cache.OpportunityRow, w Window) []cache.OpportunityRow {
	out := make([]cache.OpportunityRow, 0, len(rows))
	for _, r := range rows {
		if w.Contains(a.rowDate(r)) {
			out = append(out, r)
		}
	}
	return out
}

func (a PipelineAnalyzer) aggregate(rows []cache.OpportunityRow, w Window) PipelineBundle {
	bundle := PipelineBundle{Total: len(rows)}
	createdByDate := map[string]float64{}
	qualifiedByDate := map[string]float64{}
	wonByDate := map[string]float64{}
	lostCounts := map[string]int{}
	byPerson := map[string]*SalespersonStats{}

	for _, r := range rows {
		date := a.rowDate(r)
		createdByDate[date]++

		person := byPerson[r.Salesperson]
		if person == nil {
			person = &SalespersonStats{Name: r.Salesperson, Role: a.role(r.Salesperson)}
			byPerson[r.Salesperson] = person
		}
		person.Total++

		if a.Stages.IsToQualify(r.Stage) {
			bundle.ToQualify++
		}
		if a.Stages.IsQualified(r.Stage) {
			bundle.Qualified++
			qualifiedByDate[date]++
			person.Qualified++
		}
		if a.Stages.IsWon(r.Stage) {
			bundle.Won++
			bundle.Revenue += r.MonetaryValue
			wonByDate[date]++
			person.Won++
			person.Revenue += r.MonetaryValue
		}
		if a.Stages.IsLostSetting(r.Stage) {
			bundle.LostSetting++
		}
		if a.Stages.IsLostClosing(r.Stage) {
			bundle.LostClosing++
		}
		if a.Stages.IsInProgressSetting(r.Stage) {
			bundle.InProgressSetting++
		}
		if a.Stages.IsInProgressClosing(r.Stage) {
			bundle.InProgressClosing++
		}
		if a.Stages.IsLostSetting(r.Stage) || a.Stages.IsLostClosing(r.Stage) {
			lostCounts[normalizeLabel(r.Stage)]++
		}
	}

	// The historical report divides per-day rates by end minus start,
	// not the inclusive day count.
	numDays := float64(w.Days() - 1)
	bundle.QualifiedPerDay = SafeDiv(float64(bundle.Qualified), numDays)
	bundle.WonPerDay = SafeDiv(float64(bundle.Won), numDays)
	if bundle.Total > bundle.ToQualify {
		bundle.QualificationRate = SafeRate(float64(bundle.Qualified), float64(bundle.Total-bundle.ToQualify))
	}
	bundle.WinRate = SafeRate(float64(bundle.Won), float64(bundle.Qualified))

	bundle.LostByStage = make([]StageCount, 0, len(a.Stages.LostLabels()))
	for _, label := range a.Stages.LostLabels() {
		bundle.LostByStage = append(bundle.LostByStage, StageCount{
			Stage: label,
			Count: lostCounts[normalizeLabel(label)],
		})
	}

	bundle.DailyCreated = BuildDailySeries(w, createdByDate)
	bundle.DailyQualified = BuildDailySeries(w, qualifiedByDate)
	bundle.DailyWon = BuildDailySeries(w, wonByDate)

	bundle.Salespeople = make([]SalespersonStats, 0, len(byPerson))
	for _, person := range byPerson {
		person.WinRate = SafeRate(float64(person.Won), float64(person.Qualified))
		bundle.Salespeople = append(bundle.Salespeople, *person)
	}
	sort.Slice(bundle.Salespeople, func(i, j int) bool {
		if bundle.Salespeople[i].Won != bundle.Salespeople[j].Won {
			return bundle.Salespeople[i].Won > bundle.Salespeople[j].Won
		}
		return bundle.Salespeople[i].Name < bundle.Salespeople[j].Name
	})

	return bundle
}

func (a PipelineAnalyzer) role(name string) string {
	for _, setter := range a.Team.Setters {
		if name == setter {
			return RoleSetter
		}
	}
	for _, closer := range a.Team.Closers {
		if name == closer {
			return RoleCloser
		}
	}
	return RoleOther
}
