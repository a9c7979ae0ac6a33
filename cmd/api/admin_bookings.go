package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"rental/internal/access"
	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/bookings"
	"rental/internal/dossier"
	"rental/internal/mailer"
	"rental/internal/outreach"
	"rental/internal/params"
	"rental/internal/snapshot"

	"github.com/go-chi/chi/v5"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// BookingListResponse is one page of the admin booking list.
type BookingListResponse struct {
	Bookings   []access.View     `json:"bookings"`
	Pagination params.Pagination `json:"pagination"`
}

// listBookingsHandler godoc
//
//	@Summary		List bookings
//	@Description	Newest first, optionally filtered by status.
//	@Tags			admin-bookings
//	@Produce		json
//	@Param			status	query		string	false	"pending, confirmed, declined or cancelled"
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(20)
//	@Success		200		{object}	BookingListResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings [get]
func (app *application) listBookingsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	var filter bookings.Filter
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		status := bookings.Status(s)
		if !status.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", s))
			return
		}
		filter.Status = &status
	}
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	caller := callerFromRequest(r)
	today := app.dossier.Today()
	key := fmt.Sprintf("%s:%s:%d:%d", calendar.Format(today), q.Get("status"), p.Limit, p.Offset)
	resp, err := snapshot.Load(r.Context(), app.views, snapshot.ViewBookings, key, func(ctx context.Context) (BookingListResponse, error) {
		list, total, err := app.store.Bookings.List(ctx, filter)
		if err != nil {
			return BookingListResponse{}, apperr.Storage("list bookings", err)
		}
		page := p
		page.ComputeMeta(total)

		views := make([]access.View, 0, len(list))
		for i := range list {
			b := &list[i]
			views = append(views, access.BuildView(caller, b, today, access.Links{
				DossierURL: app.outreach.DossierURL(b.PublicToken),
				Reference:  app.refs.Encode(b.ID),
			}))
		}
		return BookingListResponse{Bookings: views, Pagination: page}, nil
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) writeBooking(w http.ResponseWriter, r *http.Request, b *bookings.Booking) {
	view, err := app.bookingView(r.Context(), callerFromRequest(r), b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingHandler godoc
//
//	@Summary		Booking detail
//	@Tags			admin-bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	access.View
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	app.writeBooking(w, r, b)
}

// getBookingByReferenceHandler godoc
//
//	@Summary		Find a booking by reference
//	@Description	Looks up the short reference a guest quotes on a transfer or in a message.
//	@Tags			admin-bookings
//	@Produce		json
//	@Param			reference	path		string	true	"Booking reference"
//	@Success		200			{object}	access.View
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/reference/{reference} [get]
func (app *application) getBookingByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.refs.Decode(chi.URLParam(r, "reference"))
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	b, err := app.dossier.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	app.writeBooking(w, r, b)
}

type StatusPayload struct {
	Status bookings.Status `json:"status" validate:"required,oneof=pending confirmed declined cancelled"`
}

// saveStatusHandler godoc
//
//	@Summary		Save booking status
//	@Description	Cancelling must be sent twice; the first call answers 409 confirmation_required.
//	@Tags			admin-bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int				true	"Booking ID"
//	@Param			payload		body		StatusPayload	true	"New status"
//	@Success		200			{object}	access.View
//	@Failure		409			{object}	ErrorResponse	"confirmation_required or unavailable_range"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/status [put]
func (app *application) saveStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload StatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.SaveStatus(r.Context(), callerFromRequest(r), id, payload.Status)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	app.writeBooking(w, r, b)
}

type GatePayload struct {
	Done bool `json:"done"`
}

// GateResponse carries the booking and the gates an unmark cleared.
type GateResponse struct {
	Booking access.View `json:"booking"`
	Cleared []string    `json:"cleared"`
}

// setGateHandler godoc
//
//	@Summary		Mark or unmark a settlement step
//	@Description	Marking requires every prerequisite step; unmarking also clears every dependent step.
//	@Tags			admin-bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int			true	"Booking ID"
//	@Param			gate		path		string		true	"whatsapp_notified, owner_confirmed, contract_sent, guest_contract_signed, deposit_paid, remaining_paid or contract_signed"
//	@Param			payload		body		GatePayload	true	"Target state"
//	@Success		200			{object}	GateResponse
//	@Failure		409			{object}	ErrorResponse	"gate_sequence_violation"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/gates/{gate} [put]
func (app *application) setGateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	gate, err := dossier.ParseGate(chi.URLParam(r, "gate"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload GatePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := callerFromRequest(r)
	b, cleared, err := app.dossier.SetGate(r.Context(), caller, id, gate, payload.Done)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	names := make([]string, 0, len(cleared))
	for _, g := range cleared {
		names = append(names, g.String())
	}
	if err := app.jsonResponse(w, http.StatusOK, GateResponse{Booking: view, Cleared: names}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// amendDatesHandler godoc
//
//	@Summary		Move a booking
//	@Description	Validates the new range against every other booking and the blocks, then reprices it.
//	@Tags			admin-bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int				true	"Booking ID"
//	@Param			payload		body		RangePayload	true	"New range"
//	@Success		200			{object}	access.View
//	@Failure		409			{object}	ErrorResponse	"unavailable_range"
//	@Failure		422			{object}	ErrorResponse	"invalid_dates or min_stay_not_met"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/dates [put]
func (app *application) amendDatesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RangePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	checkIn, _ := calendar.ParseDay(payload.CheckIn)
	checkOut, _ := calendar.ParseDay(payload.CheckOut)

	b, err := app.dossier.AmendDates(r.Context(), callerFromRequest(r), id, checkIn, checkOut)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	app.writeBooking(w, r, b)
}

type PaymentNotesPayload struct {
	PaymentNotes string `json:"payment_notes" validate:"max=4000"`
}

// updatePaymentNotesHandler godoc
//
//	@Summary		Edit payment notes
//	@Tags			admin-bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int					true	"Booking ID"
//	@Param			payload		body		PaymentNotesPayload	true	"Notes"
//	@Success		200			{object}	access.View
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/payment-notes [put]
func (app *application) updatePaymentNotesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload PaymentNotesPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.UpdatePaymentNotes(r.Context(), callerFromRequest(r), id, payload.PaymentNotes)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	app.writeBooking(w, r, b)
}

// uploadContractHandler godoc
//
//	@Summary		Upload the owner contract
//	@Description	Replaces the contract. Any guest signature is voided and the steps from it on are cleared.
//	@Tags			admin-bookings
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			bookingID	path		int		true	"Booking ID"
//	@Param			file		formData	file	true	"Contract (PDF/JPEG/PNG/WEBP/HEIC, 10 MB)"
//	@Success		200			{object}	GateResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse	"blob_failure"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/contract [post]
func (app *application) uploadContractHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	up, cleanup, err := readUpload(w, r, "file")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer cleanup()

	caller := callerFromRequest(r)
	b, cleared, err := app.dossier.UploadContract(r.Context(), caller, id, up)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	names := make([]string, 0, len(cleared))
	for _, g := range cleared {
		names = append(names, g.String())
	}
	if err := app.jsonResponse(w, http.StatusOK, GateResponse{Booking: view, Cleared: names}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// contractFilesHandler godoc
//
//	@Summary		Contract file links
//	@Description	Public URL of the owner contract and a short-lived signed URL of the guest's signed copy.
//	@Tags			admin-bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	dossier.ContractLinks
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/files [get]
func (app *application) contractFilesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	links, err := app.dossier.ContractLinks(r.Context(), callerFromRequest(r), b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, links); err != nil {
		app.internalServerError(w, r, err)
	}
}

type DeletePayload struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// DeleteResponse carries the links to tell the guest about the removal.
type DeleteResponse struct {
	Deleted bool           `json:"deleted"`
	Notify  outreach.Links `json:"notify"`
}

// deleteBookingHandler godoc
//
//	@Summary		Delete a booking
//	@Description	Must be sent twice with the same reason; the first call answers 409 confirmation_required.
//	@Description	Confirmed bookings need a reason.
//	@Tags			admin-bookings
//	@Accept			json
//	@Produce		json
//	@Param			bookingID	path		int				true	"Booking ID"
//	@Param			payload		body		DeletePayload	false	"Reason"
//	@Success		200			{object}	DeleteResponse
//	@Failure		409			{object}	ErrorResponse	"confirmation_required"
//	@Failure		422			{object}	ErrorResponse	"reason_required"
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID} [delete]
func (app *application) deleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload DeletePayload
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.Delete(r.Context(), callerFromRequest(r), id, payload.Reason)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	notify, err := app.outreach.OwnerToGuest(b, app.refs.Encode(b.ID), outreach.KindRemoved, payload.Reason)
	if err != nil {
		app.logger.Warnw("removal message could not be rendered", "booking_id", b.ID, "error", err)
	}
	if err := app.jsonResponse(w, http.StatusOK, DeleteResponse{Deleted: true, Notify: notify}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// outreachLinksHandler godoc
//
//	@Summary		Message the guest
//	@Description	WhatsApp and mailto links prefilled with the chosen message.
//	@Tags			admin-bookings
//	@Produce		json
//	@Param			bookingID	path		int		true	"Booking ID"
//	@Param			kind		query		string	true	"received, confirmed, contract, balance, review or removed"
//	@Param			reason		query		string	false	"Shown in the removed message"
//	@Success		200			{object}	outreach.Links
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/outreach [get]
func (app *application) outreachLinksHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	kind, err := outreach.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	links, err := app.outreach.OwnerToGuest(b, app.refs.Encode(b.ID), kind, r.URL.Query().Get("reason"))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, links); err != nil {
		app.internalServerError(w, r, err)
	}
}

// emailDraftHandler godoc
//
//	@Summary		Email draft
//	@Description	An unsent .eml the owner opens in their mail client.
//	@Tags			admin-bookings
//	@Produce		message/rfc822
//	@Param			bookingID	path	int		true	"Booking ID"
//	@Param			kind		query	string	true	"received, confirmed, contract, balance, review or removed"
//	@Param			reason		query	string	false	"Shown in the removed message"
//	@Success		200
//	@Security		ApiKeyAuth
//	@Router			/admin/bookings/{bookingID}/draft [get]
func (app *application) emailDraftHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bookingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	kind, err := outreach.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.dossier.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	ref := app.refs.Encode(b.ID)
	msg, err := app.outreach.Draft(b, ref, kind, r.URL.Query().Get("reason"))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "message/rfc822")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.eml"`, ref, kind))
	if err := mailer.WriteEML(w, msg); err != nil {
		app.logger.Errorw("writing email draft", "booking_id", b.ID, "error", err)
	}
}
