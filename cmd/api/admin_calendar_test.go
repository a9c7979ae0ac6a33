package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/snapshot"

	"github.com/stretchr/testify/require"
)

type fakeBlocks struct {
	rows []blockeddates.Range
}

func (f *fakeBlocks) List(context.Context) ([]blockeddates.Range, error) { return f.rows, nil }

func (f *fakeBlocks) Create(_ context.Context, r *blockeddates.Range) error {
	r.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeBlocks) Delete(context.Context, int64) error { return nil }

// activeBookings only answers ListActive.
type activeBookings struct {
	bookings.Store
	rows []bookings.Booking
}

func (a *activeBookings) ListActive(context.Context) ([]bookings.Booking, error) { return a.rows, nil }

func TestBookingsInside(t *testing.T) {
	active := []bookings.Booking{
		{ID: 1, CheckIn: day(t, "2026-06-10"), CheckOut: day(t, "2026-06-17"), Status: bookings.StatusConfirmed},
		{ID: 2, CheckIn: day(t, "2026-06-17"), CheckOut: day(t, "2026-06-20"), Status: bookings.StatusPending},
		{ID: 3, CheckIn: day(t, "2026-06-12"), CheckOut: day(t, "2026-06-14"), Status: bookings.StatusCancelled},
	}

	require.Equal(t, []int64{1}, bookingsInside("2026-06-01", "2026-06-10", active))
	// The checkout morning is not a night of the stay.
	require.Equal(t, []int64{2}, bookingsInside("2026-06-17", "2026-06-17", active))
	require.Equal(t, []int64{1, 2}, bookingsInside("2026-06-16", "2026-06-18", active))
	require.Empty(t, bookingsInside("2026-06-20", "2026-06-30", active))
}

func TestCreateBlockedDateHandler(t *testing.T) {
	app := newTestApplication(t)
	blocks := &fakeBlocks{}
	app.store.BlockedDates = blocks
	app.store.Bookings = &activeBookings{rows: []bookings.Booking{
		{ID: 4, CheckIn: day(t, "2026-06-10"), CheckOut: day(t, "2026-06-17"), Status: bookings.StatusConfirmed},
	}}
	availability := trackView(t, app, snapshot.ViewAvailability)
	pricingView := trackView(t, app, snapshot.ViewPricing)
	reason := "  painting  "

	rr := httptest.NewRecorder()
	app.createBlockedDateHandler(rr, postJSON(t, "/v1/admin/blocked-dates", BlockedDatePayload{
		StartDate: "2026-06-15",
		EndDate:   "2026-06-15",
		Reason:    &reason,
	}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data BlockedDateResponse `json:"data"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, []int64{4}, body.Data.OverlappingBookings)
	require.Equal(t, "painting", *body.Data.Block.Reason)

	require.Len(t, blocks.rows, 1)
	require.Equal(t, 2, availability())
	require.Equal(t, 1, pricingView())
}

func TestCreateBlockedDateHandler_EndBeforeStart(t *testing.T) {
	app := newTestApplication(t)
	blocks := &fakeBlocks{}
	app.store.BlockedDates = blocks
	availability := trackView(t, app, snapshot.ViewAvailability)

	rr := httptest.NewRecorder()
	app.createBlockedDateHandler(rr, postJSON(t, "/v1/admin/blocked-dates", BlockedDatePayload{
		StartDate: "2026-06-20",
		EndDate:   "2026-06-19",
	}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, blocks.rows)
	require.Equal(t, 1, availability())
}
