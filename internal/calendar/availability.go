package calendar

import (
	"time"

	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
)

// IsDateBooked reports whether date is one of the nights [CheckIn, CheckOut)
// of a pending or confirmed booking. The checkout day itself stays free so a
// new stay can start on it.
func IsDateBooked(date time.Time, bs []bookings.Booking) bool {
	d := Day(date)
	for _, b := range bs {
		if !b.Status.HoldsDates() {
			continue
		}
		if !d.Before(Day(b.CheckIn)) && d.Before(Day(b.CheckOut)) {
			return true
		}
	}
	return false
}

// IsDateBlocked reports whether date falls inside a blocked range, both
// ends inclusive.
func IsDateBlocked(date time.Time, blocks []blockeddates.Range) bool {
	d := Day(date)
	for _, br := range blocks {
		if !d.Before(Day(br.StartDate)) && !d.After(Day(br.EndDate)) {
			return true
		}
	}
	return false
}

// IsDateSelectable is false for past, booked or blocked days.
func IsDateSelectable(date time.Time, bs []bookings.Booking, blocks []blockeddates.Range, today time.Time) bool {
	d := Day(date)
	if d.Before(Day(today)) {
		return false
	}
	return !IsDateBooked(d, bs) && !IsDateBlocked(d, blocks)
}

// HasUnavailableInRange checks the nights [start, end) against bookings and
// the days [start, end] against blocks. The block check includes the
// checkout day: a stay may not end on a blocked day.
func HasUnavailableInRange(start, end time.Time, bs []bookings.Booking, blocks []blockeddates.Range) bool {
	s, e := Day(start), Day(end)
	for d := s; d.Before(e); d = d.AddDate(0, 0, 1) {
		if IsDateBooked(d, bs) {
			return true
		}
	}
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if IsDateBlocked(d, blocks) {
			return true
		}
	}
	return false
}

// Excluding returns bs without the booking identified by id. Used when a
// booking is re-validated against everyone else.
func Excluding(bs []bookings.Booking, id int64) []bookings.Booking {
	out := make([]bookings.Booking, 0, len(bs))
	for _, b := range bs {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// DayStatus is one cell of the public availability calendar.
type DayStatus struct {
	Date       string `json:"date"`
	Booked     bool   `json:"booked"`
	Blocked    bool   `json:"blocked"`
	Selectable bool   `json:"selectable"`
}

// Span lists the status of every day in [from, to].
func Span(from, to time.Time, bs []bookings.Booking, blocks []blockeddates.Range, today time.Time) []DayStatus {
	var out []DayStatus
	for d := Day(from); !d.After(Day(to)); d = d.AddDate(0, 0, 1) {
		booked := IsDateBooked(d, bs)
		blocked := IsDateBlocked(d, blocks)
		out = append(out, DayStatus{
			Date:       d.Format(Layout),
			Booked:     booked,
			Blocked:    blocked,
			Selectable: !booked && !blocked && !d.Before(Day(today)),
		})
	}
	return out
}
