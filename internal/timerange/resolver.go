// Package timerange maps period selectors to concrete date boundaries. All
// analyzers resolve their window here so boundary arithmetic lives in one
// place.
package timerange

import "time"

// Period selects how a date range is derived.
type Period string

const (
	PeriodDay    Period = "day"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

// Filter is the caller-supplied selector. StartDate and EndDate are only
// consulted for PeriodCustom.
type Filter struct {
	Period    Period
	StartDate *time.Time
	EndDate   *time.Time
}

// DateRange is a resolved window. Start <= End always holds for resolver
// output.
type DateRange struct {
	Start time.Time
	End   time.Time
}

const defaultLookbackDays = 30

// Resolve maps a filter to concrete boundaries using the current wall clock.
func Resolve(f Filter) DateRange {
	return ResolveAt(time.Now(), f)
}

// ResolveAt is Resolve with an injectable clock.
func ResolveAt(now time.Time, f Filter) DateRange {
	switch f.Period {
	case PeriodDay:
		return DateRange{Start: startOfDay(now), End: endOfDay(now)}

	case PeriodWeek:
		// Weeks run Sunday through Saturday.
		sunday := now.AddDate(0, 0, -int(now.Weekday()))
		saturday := sunday.AddDate(0, 0, 6)
		return DateRange{Start: startOfDay(sunday), End: endOfDay(saturday)}

	case PeriodMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return DateRange{Start: first, End: endOfDay(last)}

	case PeriodYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		last := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: endOfDay(last)}

	case PeriodCustom:
		// Custom boundaries are taken verbatim, no snapping. Missing bounds
		// fall through to the default window.
		if f.StartDate != nil && f.EndDate != nil {
			return DateRange{Start: *f.StartDate, End: *f.EndDate}
		}
	}

	return DateRange{
		Start: startOfDay(now.AddDate(0, 0, -defaultLookbackDays)),
		End:   endOfDay(now),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
