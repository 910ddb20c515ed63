package insights

import (
	"strings"

	"github.com/brainonstrategy/bos-dashboard/pkg/config"
)

// StageGroup names one bucket of the sales funnel.
type StageGroup string

const (
	GroupToQualify         StageGroup = "to_qualify"
	GroupQualified         StageGroup = "qualified"
	GroupWon               StageGroup = "won"
	GroupLostSetting       StageGroup = "lost_setting"
	GroupLostClosing       StageGroup = "lost_closing"
	GroupInProgressSetting StageGroup = "in_progress_setting"
	GroupInProgressClosing StageGroup = "in_progress_closing"
)

// StageGroups resolves free-text CRM stage labels into funnel buckets.
// Membership checks normalize both sides (trim + case fold): the CRM
// labels have historically carried trailing-whitespace variants that
// would otherwise silently fall out of every set filter.
type StageGroups struct {
	known             map[string]struct{}
	toQualify         map[string]struct{}
	qualified         map[string]struct{}
	won               map[string]struct{}
	lostSetting       map[string]struct{}
	lostClosing       map[string]struct{}
	inProgressSetting map[string]struct{}
	inProgressClosing map[string]struct{}

	lostLabels []string
}

func NewStageGroups(cfg config.StagesConfig) *StageGroups {
	g := &StageGroups{
		known:             labelSet(cfg.Known),
		toQualify:         labelSet(cfg.ToQualify),
		qualified:         labelSet(cfg.Qualified),
		won:               labelSet(cfg.Won),
		lostSetting:       labelSet(cfg.LostSetting),
		lostClosing:       labelSet(cfg.LostClosing),
		inProgressSetting: labelSet(cfg.InProgressSetting),
		inProgressClosing: labelSet(cfg.InProgressClosing),
	}
	// Canonical display order for the lost-opportunity table.
	g.lostLabels = append(append([]string{}, cfg.LostSetting...), cfg.LostClosing...)
	return g
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		set[normalizeLabel(label)] = struct{}{}
	}
	return set
}

func member(set map[string]struct{}, label string) bool {
	_, ok := set[normalizeLabel(label)]
	return ok
}

func (g *StageGroups) IsKnown(stage string) bool     { return member(g.known, stage) }
func (g *StageGroups) IsToQualify(stage string) bool { return member(g.toQualify, stage) }
func (g *StageGroups) IsQualified(stage string) bool { return member(g.qualified, stage) }
func (g *StageGroups) IsWon(stage string) bool       { return member(g.won, stage) }
func (g *StageGroups) IsLostSetting(stage string) bool {
	return member(g.lostSetting, stage)
}
func (g *StageGroups) IsLostClosing(stage string) bool {
	return member(g.lostClosing, stage)
}
func (g *StageGroups) IsInProgressSetting(stage string) bool {
	return member(g.inProgressSetting, stage)
}
func (g *StageGroups) IsInProgressClosing(stage string) bool {
	return member(g.inProgressClosing, stage)
}

// LostLabels lists every configured lost stage in display order, setting
// losses first.
func (g *StageGroups) LostLabels() []string {
	return g.lostLabels
}
