// Package timeutil holds the local-day window arithmetic shared by the
// stores, the handlers and the planner. "Day" always means the wall-clock
// calendar day of the given instant, 00:00:00.000 through 23:59:59.999.
package timeutil

import "time"

// DayBounds returns the inclusive start and end of the calendar day
// containing t, in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	year, month, day := t.Date()
	start = time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end = time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), t.Location())
	return start, end
}

// SameDay reports whether a and b fall on the same calendar day,
// compared in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
