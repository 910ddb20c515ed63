package insights

import (
	"fmt"
	"testing"

	"github.com/brainonstrategy/bos-dashboard/internal/cache"
	"github.com/brainonstrategy/bos-dashboard/pkg/config"
)

func opp(id, createdAt, stage string, value float64) cache.OpportunityRow {
	return cache.OpportunityRow{
		ID:                id,
		CreatedAt:         createdAt,
		LastStageChangeAt: createdAt,
		Stage:             stage,
		MonetaryValue:     value,
	}
}

func pipelineAnalyzer(t *testing.T, pair WindowPair, updateField string) PipelineAnalyzer {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return PipelineAnalyzer{
		Windows:     pair,
		Stages:      NewStageGroups(cfg.Stages),
		Team:        cfg.Team,
		UpdateField: updateField,
	}
}

// 10 opportunities, 3 won with values 100+200+300: won-count 3, revenue 600.
func TestPipelineWonCountAndRevenue(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := pipelineAnalyzer(t, pair, UpdateByCreation)

	rows := []cache.OpportunityRow{
		opp("1", "2024-01-08", "Vinti generici", 100),
		opp("2", "2024-01-09", "Vinto Abbonamento Mensile", 200),
		opp("3", "2024-01-10", "Vinto Abbonamento Annuale", 300),
		opp("4", "2024-01-08", "Nuova Opportunità", 0),
		opp("5", "2024-01-08", "Senza risposta", 0),
		opp("6", "2024-01-09", "Call onboarding", 0),
		opp("7", "2024-01-10", "Seconda call / demo", 0),
		opp("8", "2024-01-11", "Fuori target", 0),
		opp("9", "2024-01-12", "Cliente Non vinto ", 0),
		opp("10", "2024-01-13", "Non Pronto (in target)", 0),
	}
	current, _ := analyzer.Analyze(rows)

	if current.Total != 10 {
		t.Fatalf("expected 10 opportunities, got %d", current.Total)
	}
	if current.Won != 3 {
		t.Fatalf("expected 3 won, got %d", current.Won)
	}
	if !approx(current.Revenue, 600) {
		t.Fatalf("expected revenue 600, got %v", current.Revenue)
	}
	if current.ToQualify != 2 {
		t.Fatalf("expected 2 to qualify, got %d", current.ToQualify)
	}
	if current.LostSetting != 1 || current.LostClosing != 2 {
		t.Fatalf("expected 1 setting / 2 closing losses, got %d / %d", current.LostSetting, current.LostClosing)
	}
	if current.InProgressSetting != 1 || current.InProgressClosing != 1 {
		t.Fatalf("unexpected in-progress counts %d / %d", current.InProgressSetting, current.InProgressClosing)
	}
	// Qualified is composite: 3 won + 2 in progress + closing loss + non pronto.
	if current.Qualified != 7 {
		t.Fatalf("expected 7 qualified, got %d", current.Qualified)
	}
	// qualified / (total - to_qualify) = 7/8.
	if !approx(current.QualificationRate, 87.5) {
		t.Fatalf("expected qualification rate 87.5%%, got %v", current.QualificationRate)
	}
	// won / qualified = 3/7.
	if !approx(current.WinRate, 300.0/7) {
		t.Fatalf("expected win rate 3/7, got %v", current.WinRate)
	}
}

func TestPipelineLostByStageTable(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := pipelineAnalyzer(t, pair, UpdateByCreation)

	rows := []cache.OpportunityRow{
		opp("1", "2024-01-08", "Fuori target", 0),
		opp("2", "2024-01-08", "Fuori target", 0),
		opp("3", "2024-01-09", "Cliente Non vinto", 0),
	}
	current, _ := analyzer.Analyze(rows)

	counts := map[string]int{}
	for _, row := range current.LostByStage {
		counts[row.Stage] = row.Count
	}
	if counts["Fuori target"] != 2 {
		t.Fatalf("expected 2 fuori target, got %+v", current.LostByStage)
	}
	if counts["Cliente Non vinto"] != 1 {
		t.Fatalf("expected 1 cliente non vinto, got %+v", current.LostByStage)
	}
	// Every configured lost stage appears, zero-count included.
	if counts["Non Pronto (in target)"] != 0 {
		t.Fatalf("expected zero-count rows present, got %+v", current.LostByStage)
	}
}

func TestPipelineUpdateFieldSelectsDate(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")

	row := cache.OpportunityRow{
		ID:                "1",
		CreatedAt:         "2023-12-01",
		LastStageChangeAt: "2024-01-10",
		Stage:             "Vinti generici",
		MonetaryValue:     50,
	}

	byCreation := pipelineAnalyzer(t, pair, UpdateByCreation)
	current, _ := byCreation.Analyze([]cache.OpportunityRow{row})
	if current.Total != 0 {
		t.Fatalf("creation date is outside the window, expected 0, got %d", current.Total)
	}

	byStageChange := pipelineAnalyzer(t, pair, UpdateByStageChange)
	current, _ = byStageChange.Analyze([]cache.OpportunityRow{row})
	if current.Total != 1 || current.Won != 1 {
		t.Fatalf("expected the row under its stage-change date, got %+v", current)
	}
}

func TestPipelineDailySeries(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := pipelineAnalyzer(t, pair, UpdateByCreation)

	rows := []cache.OpportunityRow{
		opp("1", "2024-01-08", "Vinti generici", 10),
		opp("2", "2024-01-08", "Nuova Opportunità", 0),
		opp("3", "2024-01-10", "Call onboarding", 0),
	}
	current, _ := analyzer.Analyze(rows)

	if len(current.DailyCreated) != 7 {
		t.Fatalf("expected 7 daily points, got %d", len(current.DailyCreated))
	}
	if current.DailyCreated[0].Value != 2 {
		t.Fatalf("expected 2 created on day 0, got %v", current.DailyCreated[0].Value)
	}
	if current.DailyWon[0].Value != 1 || current.DailyQualified[2].Value != 1 {
		t.Fatalf("unexpected series: won %+v qualified %+v", current.DailyWon, current.DailyQualified)
	}
}

func TestPipelineSalespersonBreakdown(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := pipelineAnalyzer(t, pair, UpdateByCreation)

	rows := make([]cache.OpportunityRow, 0, 4)
	for i, stage := range []string{"Vinti generici", "Vinti generici", "Call onboarding", "Nuova Opportunità"} {
		r := opp(fmt.Sprint(i+1), "2024-01-09", stage, 100)
		r.Salesperson = "Daniel Prigioni"
		rows = append(rows, r)
	}
	current, _ := analyzer.Analyze(rows)

	if len(current.Salespeople) != 1 {
		t.Fatalf("expected one salesperson, got %+v", current.Salespeople)
	}
	person := current.Salespeople[0]
	if person.Role != RoleCloser {
		t.Fatalf("expected closer role, got %q", person.Role)
	}
	if person.Total != 4 || person.Won != 2 || !approx(person.Revenue, 200) {
		t.Fatalf("unexpected stats %+v", person)
	}
}

func TestPipelineEmptyWindowIsAllZeros(t *testing.T) {
	pair := mustPair(t, "2024-01-08", "2024-01-14")
	analyzer := pipelineAnalyzer(t, pair, UpdateByCreation)

	current, comparison := analyzer.Analyze(nil)
	if current.Total != 0 || current.QualificationRate != 0 || current.WinRate != 0 {
		t.Fatalf("expected zeroed bundle, got %+v", current)
	}
	if len(comparison.DailyCreated) != 7 {
		t.Fatalf("comparison series must still cover the window")
	}
}
