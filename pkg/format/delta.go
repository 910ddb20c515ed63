package format

// NotApplicable is how a delta without a meaningful comparison renders.
const NotApplicable = "-"

// Delta is a period-over-period percentage change. Valid is false when the
// previous value was zero: there is no meaningful percentage against an
// empty period, and the sentinel must never surface as Inf or NaN.
type Delta struct {
	Percent float64 `json:"percent"`
	Valid   bool    `json:"valid"`
}

// PercentDelta computes (current-previous)/previous*100, degrading to the
// not-applicable sentinel when previous is zero.
func PercentDelta(current, previous float64) Delta {
	if previous == 0 {
		return Delta{}
	}
	return Delta{
		Percent: (current - previous) / previous * 100,
		Valid:   true,
	}
}

// String renders the delta for display: "-" when not applicable.
func (d Delta) String() string {
	if !d.Valid {
		return NotApplicable
	}
	return Percentage(d.Percent)
}
