package model

import "time"

// DateLayout is the wire format for calendar dates. Dates are stored as
// UTC midnight instants so range queries and equality behave like plain
// calendar-date comparisons.
const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInclusive returns the number of calendar days between start and
// end, counting both endpoints. Both arguments must be UTC midnight.
func DaysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
