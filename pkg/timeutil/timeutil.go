// Package timeutil provides date helpers used across the insight engine:
// ISO date stamps for append-only notes, day boundaries for dashboards,
// and deadline arithmetic for the insight expiry sweep.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// DateStampLayout is the layout used for note date stamps.
const DateStampLayout = "2006-01-02"

// Now returns the current time in UTC. All engine timestamps are UTC;
// presentation layers convert for display.
func Now() time.Time {
	return time.Now().UTC()
}

// DateStamp formats a time as an ISO date, e.g. "2026-08-29".
func DateStamp(t time.Time) string {
	return t.UTC().Format(DateStampLayout)
}

// StampedNote prefixes a note entry with its ISO date stamp:
// "[2026-08-29] Spoke with the student after class".
func StampedNote(t time.Time, note string) string {
	return fmt.Sprintf("[%s] %s", DateStamp(t), note)
}

// StartOfDay returns the start of the UTC day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the UTC day containing t.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// DaysAgo returns the start of the UTC day n days before now.
func DaysAgo(now time.Time, n int) time.Time {
	return StartOfDay(now.AddDate(0, 0, -n))
}

// DaysBetween returns the number of whole UTC days between two times.
// The result is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// IsOverdue reports whether deadline has passed at now.
func IsOverdue(deadline, now time.Time) bool {
	return now.After(deadline)
}

// SameDay reports whether two times fall on the same UTC day.
func SameDay(a, b time.Time) bool {
	return DateStamp(a) == DateStamp(b)
}
