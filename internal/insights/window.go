// Package insights turns cached raw source rows into the aggregate bundles
// the dashboard renders. Every analyzer is configured once with a window
// pair and computes the current and comparison bundles independently, so a
// metric and its period-over-period delta always come from the same pass.
package insights

import (
	"fmt"
	"time"

	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
)

const dateLayout = "2006-01-02"

// Window is an inclusive calendar-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowPair couples the requested window with the period immediately
// before it, of equal length.
type WindowPair struct {
	Current    Window
	Comparison Window
}

// NewWindow parses and validates an inclusive date range.
func NewWindow(start, end string) (Window, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid start date %q", start))
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid end date %q", end))
	}
	if e.Before(s) {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	return Window{Start: s, End: e}, nil
}

// NewWindowPair derives the comparison period from the requested one:
// it ends the day before the current window starts and spans the same
// number of days, so the two windows are contiguous and equal length.
func NewWindowPair(start, end string) (WindowPair, error) {
	current, err := NewWindow(start, end)
	if err != nil {
		return WindowPair{}, err
	}
	period := current.Days()
	comparison := Window{
		Start: current.Start.AddDate(0, 0, -period),
		End:   current.Start.AddDate(0, 0, -1),
	}
	return WindowPair{Current: current, Comparison: comparison}, nil
}

// Days is the inclusive length of the window in calendar days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// StartDate and EndDate render the bounds in the storage date format.
func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
func (w Window) EndDate() string   { return w.End.Format(dateLayout) }

// Contains reports whether a stored date string falls inside the window.
// Dates are stored as YYYY-MM-DD so the comparison is lexicographic;
// sentinel values like "N/A" sort outside any real range.
func (w Window) Contains(date string) bool {
	return date >= w.StartDate() && date <= w.EndDate()
}

// DayOffset is the zero-based position of a date within the window, or
// -1 when the date does not parse or lies outside it.
func (w Window) DayOffset(date string) int {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return -1
	}
	offset := int(d.Sub(w.Start).Hours() / 24)
	if offset < 0 || offset >= w.Days() {
		return -1
	}
	return offset
}

// CombinedRange is the full span both windows cover, for a single cache
// query that feeds both bundles.
func (p WindowPair) CombinedRange() (string, string) {
	return p.Comparison.StartDate(), p.Current.EndDate()
}
