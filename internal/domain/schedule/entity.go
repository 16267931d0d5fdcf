package schedule

import "time"

// ShiftRule is one recurring weekly shift assignment: the user works from
// StartTime to EndTime on the given weekday. Only the time-of-day of
// StartTime/EndTime is meaningful; EndTime at or before StartTime means the
// shift runs overnight into the next calendar day.
type ShiftRule struct {
	ID        string
	UserID    string
	DayOfWeek int // 1=Monday, ..., 7=Sunday, the day the shift starts
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftWindow is the concrete start/end instants of a shift on a specific
// calendar day, overnight wraparound already resolved.
type ShiftWindow struct {
	Start time.Time
	End   time.Time
}

// ShiftDate is the local calendar day the shift starts on, normalized to a
// date-only value. Overnight shifts belong to the day they start.
func (w ShiftWindow) ShiftDate(loc *time.Location) time.Time {
	local := w.Start.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Tolerance is the band around a candidate instant inside which a shift
// start counts as a match: [at - Late, at + EarlyGrace].
type Tolerance struct {
	Late       time.Duration
	EarlyGrace time.Duration
}

// WindowOn materializes the rule on the given local calendar day.
func (r ShiftRule) WindowOn(day time.Time, loc *time.Location) ShiftWindow {
	start := time.Date(day.Year(), day.Month(), day.Day(),
		r.StartTime.Hour(), r.StartTime.Minute(), r.StartTime.Second(), 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(),
		r.EndTime.Hour(), r.EndTime.Minute(), r.EndTime.Second(), 0, loc)

	// Overnight shift: end is pushed to the next day
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	return ShiftWindow{Start: start, End: end}
}

// ISOWeekday maps time.Weekday to 1=Monday ... 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MatchWindow finds the shift whose start falls inside the tolerance band
// around at. Rules are materialized on yesterday, today and tomorrow in the
// business time zone so overnight shifts and a grace band crossing midnight
// both resolve. Returns nil when nothing matches.
func MatchWindow(rules []ShiftRule, at time.Time, tol Tolerance, loc *time.Location) *ShiftWindow {
	earliest := at.Add(-tol.Late)
	latest := at.Add(tol.EarlyGrace)
	local := at.In(loc)

	var best *ShiftWindow
	for dayOffset := -1; dayOffset <= 1; dayOffset++ {
		day := local.AddDate(0, 0, dayOffset)
		weekday := ISOWeekday(day)
		for _, rule := range rules {
			if rule.DayOfWeek != weekday {
				continue
			}
			window := rule.WindowOn(day, loc)
			if window.Start.Before(earliest) || window.Start.After(latest) {
				continue
			}
			// Prefer the start closest to the candidate instant
			if best == nil || absDuration(window.Start.Sub(at)) < absDuration(best.Start.Sub(at)) {
				w := window
				best = &w
			}
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
