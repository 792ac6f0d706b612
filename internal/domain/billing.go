package domain

import "time"

// Member status values. Persisted as-is, so renaming these is a data migration.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// DeriveStatus returns the status implied by a member's next bill date.
// The boundary is exclusive on the Active side: a bill date equal to now
// counts as already expired. Every status comparison in the codebase goes
// through this function; the reconciler and the sweep must not re-implement it.
func DeriveStatus(nextBillDate, now time.Time) string {
	if nextBillDate.After(now) {
		return StatusActive
	}
	return StatusInactive
}

// AddMonths advances t by the given number of calendar months, clamping to
// the last day of the target month when the source day does not exist there
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year).
//
// time.AddDate would roll Jan 31 + 1 month over into March; billing dates
// must never skip a month, so the clamp is explicit here.
func AddMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DayWindow returns the inclusive [start, end] bounds of the calendar day
// offsetDays ahead of t, in t's location. The sweep uses offset 0 for the
// "expires today" window and offset 7 for the reminder window; because the
// expired pass filters strictly before start-of-today, the two never overlap.
func DayWindow(t time.Time, offsetDays int) (time.Time, time.Time) {
	day := t.AddDate(0, 0, offsetDays)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
