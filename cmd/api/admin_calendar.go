package main

import (
	"fmt"
	"net/http"
	"strings"

	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/snapshot"
)

type BlockedDatePayload struct {
	StartDate string  `json:"start_date" validate:"required,isoday"`
	EndDate   string  `json:"end_date" validate:"required,isoday"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// BlockedDateResponse warns about active bookings inside the new block.
type BlockedDateResponse struct {
	Block               blockeddates.Range `json:"block"`
	OverlappingBookings []int64            `json:"overlapping_bookings"`
}

// bookingsInside returns the ids of active bookings with a night in the
// inclusive range [start, end].
func bookingsInside(start, end string, active []bookings.Booking) []int64 {
	from, _ := calendar.ParseDay(start)
	to, _ := calendar.ParseDay(end)
	out := []int64{}
	for _, b := range active {
		if !b.Status.HoldsDates() {
			continue
		}
		if !calendar.Day(b.CheckIn).After(to) && calendar.Day(b.CheckOut).After(from) {
			out = append(out, b.ID)
		}
	}
	return out
}

// listBlockedDatesHandler godoc
//
//	@Summary		List blocked ranges
//	@Tags			admin-calendar
//	@Produce		json
//	@Success		200	{array}		blockeddates.Range
//	@Security		ApiKeyAuth
//	@Router			/admin/blocked-dates [get]
func (app *application) listBlockedDatesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.BlockedDates.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []blockeddates.Range{}
	}
	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createBlockedDateHandler godoc
//
//	@Summary		Block dates
//	@Description	Both ends are inclusive. Active bookings inside the range are reported, not changed.
//	@Tags			admin-calendar
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BlockedDatePayload	true	"Range"
//	@Success		201		{object}	BlockedDateResponse
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/blocked-dates [post]
func (app *application) createBlockedDateHandler(w http.ResponseWriter, r *http.Request) {
	var payload BlockedDatePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	start, _ := calendar.ParseDay(payload.StartDate)
	end, _ := calendar.ParseDay(payload.EndDate)
	if end.Before(start) {
		app.badRequestResponse(w, r, fmt.Errorf("end_date must not be before start_date"))
		return
	}

	block := &blockeddates.Range{StartDate: start, EndDate: end}
	if payload.Reason != nil {
		reason := strings.TrimSpace(*payload.Reason)
		if reason != "" {
			block.Reason = &reason
		}
	}

	ctx := r.Context()
	if err := app.store.BlockedDates.Create(ctx, block); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("create blocked range", err))
		return
	}
	app.views.Touch(ctx, snapshot.BlockedDates)
	app.logger.Infow("dates blocked", "block_id", block.ID, "start", payload.StartDate, "end", payload.EndDate)

	active, err := app.store.Bookings.ListActive(ctx)
	if err != nil {
		app.logger.Warnw("could not check bookings inside block", "block_id", block.ID, "error", err)
	}

	resp := BlockedDateResponse{
		Block:               *block,
		OverlappingBookings: bookingsInside(payload.StartDate, payload.EndDate, active),
	}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteBlockedDateHandler godoc
//
//	@Summary		Unblock dates
//	@Tags			admin-calendar
//	@Param			blockID	path	int	true	"Block ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/blocked-dates/{blockID} [delete]
func (app *application) deleteBlockedDateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "blockID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.BlockedDates.Delete(r.Context(), id); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("delete blocked range", err))
		return
	}
	app.views.Touch(r.Context(), snapshot.BlockedDates)
	app.logger.Infow("dates unblocked", "block_id", id)

	w.WriteHeader(http.StatusNoContent)
}
