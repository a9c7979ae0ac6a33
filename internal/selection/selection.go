// Package selection validates a guest's check-in/check-out choice against the
// current availability and pricing snapshot.
package selection

import (
	"fmt"
	"strings"
	"time"

	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/pricing"
)

// MaxNights caps a single stay.
const MaxNights = 365

type State int

const (
	Empty State = iota
	PartialStart
	Confirmed
)

func (s State) String() string {
	switch s {
	case PartialStart:
		return "partial_start"
	case Confirmed:
		return "confirmed"
	default:
		return "empty"
	}
}

// Snapshot is everything a range decision depends on. It is read-only.
type Snapshot struct {
	Bookings  []bookings.Booking
	Blocks    []blockeddates.Range
	Engine    pricing.Engine
	MaxGuests int
	Today     time.Time
}

// PricedStay is the outcome of a valid range.
type PricedStay struct {
	CheckIn         time.Time `json:"-"`
	CheckOut        time.Time `json:"-"`
	Nights          int       `json:"nights"`
	TotalPrice      float64   `json:"total_price"`
	MinStayRequired int       `json:"min_stay_required"`
	Deposit         float64   `json:"deposit"`
	Remaining       float64   `json:"remaining"`
}

// ValidateRange accepts or rejects [start, end). Checks run in a fixed order:
// night count, availability, minimum stay. Nothing is walked day by day
// before the night count is known to be within MaxNights.
func ValidateRange(start, end time.Time, snap Snapshot) (PricedStay, error) {
	start, end = calendar.Day(start), calendar.Day(end)

	nights := calendar.Nights(start, end)
	if nights < 1 {
		return PricedStay{}, apperr.ErrInvalidDates
	}
	if nights > MaxNights {
		return PricedStay{}, fmt.Errorf("%w: stays are limited to %d nights", apperr.ErrInvalidDates, MaxNights)
	}
	if calendar.HasUnavailableInRange(start, end, snap.Bookings, snap.Blocks) {
		return PricedStay{}, apperr.ErrUnavailableRange
	}
	required := snap.Engine.MinStayForRange(start, end)
	if nights < required {
		return PricedStay{}, &apperr.MinStayError{Required: required}
	}

	total := snap.Engine.TotalPrice(start, end)
	deposit := pricing.DepositAmount(total, snap.Engine.Policy.DepositRatio)
	return PricedStay{
		CheckIn:         start,
		CheckOut:        end,
		Nights:          nights,
		TotalPrice:      total,
		MinStayRequired: required,
		Deposit:         deposit,
		Remaining:       pricing.RemainingAmount(total, deposit),
	}, nil
}

// Selection is an in-progress date pick. The zero value is Empty.
type Selection struct {
	State  State
	Start  time.Time
	End    time.Time
	Guests int

	stay PricedStay
}

// Select feeds one clicked date into the selection.
//
// From Empty or Confirmed the date becomes a new start and must itself be
// selectable. From PartialStart it is the end candidate; a rejected end is
// kept as the new start and the reason is returned.
func (s *Selection) Select(date time.Time, snap Snapshot) error {
	d := calendar.Day(date)

	if s.State != PartialStart {
		if d.Before(calendar.Day(snap.Today)) {
			return apperr.ErrInvalidDates
		}
		if calendar.IsDateBooked(d, snap.Bookings) || calendar.IsDateBlocked(d, snap.Blocks) {
			return apperr.ErrUnavailableRange
		}
		s.startOver(d)
		return nil
	}

	stay, err := ValidateRange(s.Start, d, snap)
	if err != nil {
		s.startOver(d)
		return err
	}
	s.End = d
	s.stay = stay
	s.State = Confirmed
	return nil
}

func (s *Selection) startOver(d time.Time) {
	s.Start = d
	s.End = time.Time{}
	s.stay = PricedStay{}
	s.State = PartialStart
}

// Revalidate re-checks a Confirmed range against a fresh snapshot. When the
// range no longer holds the end is dropped, the start kept, and the reason
// returned. A still-valid range is repriced.
func (s *Selection) Revalidate(snap Snapshot) error {
	if s.State != Confirmed {
		return nil
	}
	stay, err := ValidateRange(s.Start, s.End, snap)
	if err != nil {
		s.startOver(s.Start)
		return err
	}
	s.stay = stay
	return nil
}

// Restore rebuilds a range the guest already confirmed and re-checks it
// against snap. A start in the past drops the whole pick.
func Restore(start, end time.Time, snap Snapshot) (Selection, error) {
	start = calendar.Day(start)
	if start.Before(calendar.Day(snap.Today)) {
		return Selection{}, apperr.ErrInvalidDates
	}
	s := Selection{State: Confirmed, Start: start, End: calendar.Day(end)}
	err := s.Revalidate(snap)
	return s, err
}

// Stay returns the priced stay of a Confirmed selection.
func (s *Selection) Stay() (PricedStay, bool) {
	if s.State != Confirmed {
		return PricedStay{}, false
	}
	return s.stay, true
}

// SetGuests stores n clamped into [1, maxGuests].
func (s *Selection) SetGuests(n, maxGuests int) int {
	s.Guests = ClampGuests(n, maxGuests)
	return s.Guests
}

func ClampGuests(n, maxGuests int) int {
	if maxGuests < 1 {
		maxGuests = 1
	}
	if n < 1 {
		return 1
	}
	if n > maxGuests {
		return maxGuests
	}
	return n
}

// Contact is the guest's contact block on the booking form.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Missing lists the empty required fields.
func (c Contact) Missing() []string {
	var out []string
	if strings.TrimSpace(c.Name) == "" {
		out = append(out, "guest_name")
	}
	if strings.TrimSpace(c.Email) == "" {
		out = append(out, "guest_email")
	}
	if strings.TrimSpace(c.Phone) == "" {
		out = append(out, "guest_phone")
	}
	return out
}

// CanSubmit reports the first reason the booking form may not be sent. It
// never adjusts the selection.
func (s *Selection) CanSubmit(c Contact, maxGuests int) error {
	if s.State != Confirmed {
		return apperr.ErrInvalidDates
	}
	if s.Guests < 1 || s.Guests > maxGuests {
		return fmt.Errorf("%w: guests must be between 1 and %d", apperr.ErrInvalidInput, maxGuests)
	}
	if missing := c.Missing(); len(missing) > 0 {
		return &apperr.FieldsError{Fields: missing}
	}
	return nil
}
