package admindashboard

import (
	"context"
	"time"
)

type Overview struct {
	// Bookings
	TotalBookings     int64 `json:"total_bookings"`
	PendingBookings   int64 `json:"pending_bookings"`
	ConfirmedBookings int64 `json:"confirmed_bookings"`
	DeclinedBookings  int64 `json:"declined_bookings"`
	CancelledBookings int64 `json:"cancelled_bookings"`

	// Calendar
	InHouse          int64 `json:"in_house"`
	UpcomingArrivals int64 `json:"upcoming_arrivals"`

	// Settlement steps still open on confirmed stays
	AwaitingContract  int64 `json:"awaiting_contract"`
	AwaitingSignature int64 `json:"awaiting_signature"`
	AwaitingDeposit   int64 `json:"awaiting_deposit"`
	AwaitingBalance   int64 `json:"awaiting_balance"`

	// Money, for confirmed stays
	BookedRevenue      float64 `json:"booked_revenue"`
	OutstandingBalance float64 `json:"outstanding_balance"`

	UnreadMessages int64 `json:"unread_messages"`
}

// UpcomingDays is how far ahead arrivals are counted.
const UpcomingDays = 30

type Store interface {
	GetOverview(ctx context.Context, today time.Time) (*Overview, error)
}
