package calendar

import (
	"fmt"
	"time"
)

// Layout is the wire format of a calendar day.
const Layout = "2006-01-02"

// Day truncates t to its calendar day, expressed as UTC midnight. All dates
// handled by the booking core are normalised through Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return Day(t).Format(Layout)
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// Nights is the number of nights between start and end. It is zero or
// negative when end is not after start.
func Nights(start, end time.Time) int {
	return int((Day(end).Unix() - Day(start).Unix()) / 86400)
}

// Today is the current calendar day at the property.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}
