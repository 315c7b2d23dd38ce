package order

import (
	"fmt"
	"time"
)

// DayBounds returns the first and the last millisecond of t's calendar day
// in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// FormatOrderNumber renders #YYYY-MM-DD-NNNN for the seq-th order of day.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("#%s-%04d", day.Format(time.DateOnly), seq)
}
