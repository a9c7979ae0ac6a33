package admindashboard

import (
	"context"
	"fmt"
	"time"

	"rental/internal/calendar"
	"rental/internal/infra/dbx"
)

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

// GetOverview counts bookings and open settlement steps as of today.
// Revenue covers confirmed stays arriving in today's calendar year.
func (r *Repository) GetOverview(ctx context.Context, today time.Time) (*Overview, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM bookings),
			(SELECT COUNT(*) FROM bookings WHERE status = 'pending'),
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed'),
			(SELECT COUNT(*) FROM bookings WHERE status = 'declined'),
			(SELECT COUNT(*) FROM bookings WHERE status = 'cancelled'),

			(SELECT COUNT(*) FROM bookings
				WHERE status = 'confirmed' AND check_in <= $1 AND check_out > $1),
			(SELECT COUNT(*) FROM bookings
				WHERE status IN ('pending', 'confirmed') AND check_in > $1 AND check_in <= $2),

			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed' AND NOT contract_sent),
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed' AND contract_sent AND NOT guest_contract_signed),
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed' AND NOT deposit_paid),
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed' AND deposit_paid AND NOT remaining_paid),

			(SELECT COALESCE(SUM(total_price), 0)::float8 FROM bookings
				WHERE status = 'confirmed' AND EXTRACT(YEAR FROM check_in)::int = $3),
			(SELECT COALESCE(SUM(
				CASE
					WHEN remaining_paid THEN 0
					WHEN deposit_paid THEN total_price - deposit_amount
					ELSE total_price
				END), 0)::float8 FROM bookings WHERE status = 'confirmed'),

			(SELECT COUNT(*) FROM contact_messages WHERE NOT read)
	`

	today = calendar.Day(today)
	var o Overview
	err := r.q.QueryRow(ctx, q, today, calendar.AddDays(today, UpcomingDays), today.Year()).Scan(
		&o.TotalBookings,
		&o.PendingBookings,
		&o.ConfirmedBookings,
		&o.DeclinedBookings,
		&o.CancelledBookings,

		&o.InHouse,
		&o.UpcomingArrivals,

		&o.AwaitingContract,
		&o.AwaitingSignature,
		&o.AwaitingDeposit,
		&o.AwaitingBalance,

		&o.BookedRevenue,
		&o.OutstandingBalance,

		&o.UnreadMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}

	return &o, nil
}
