package insights

// TimeSeriesPoint is one day of a window-aligned series. Day is the
// zero-based offset from the window start, so current and comparison
// series overlay by position rather than by calendar date.
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

// BuildDailySeries zero-fills one point per day of the window and adds
// the accumulated per-date values. Dates outside the window are ignored.
func BuildDailySeries(w Window, byDate map[string]float64) []TimeSeriesPoint {
	series := make([]TimeSeriesPoint, w.Days())
	for i := range series {
		series[i] = TimeSeriesPoint{
			Date: w.Start.AddDate(0, 0, i).Format(dateLayout),
			Day:  i,
		}
	}
	for date, value := range byDate {
		if offset := w.DayOffset(date); offset >= 0 {
			series[offset].Value += value
		}
	}
	return series
}
