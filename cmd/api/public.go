package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"rental/internal/access"
	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/bookings"
	"rental/internal/domain/messages"
	"rental/internal/domain/pricingrules"
	"rental/internal/dossier"
	"rental/internal/outreach"
	"rental/internal/params"
	"rental/internal/selection"
	"rental/internal/snapshot"
)

// AvailabilityResponse lists one status per calendar day.
type AvailabilityResponse struct {
	From  string               `json:"from"`
	To    string               `json:"to"`
	Today string               `json:"today"`
	Days  []calendar.DayStatus `json:"days"`
}

// availabilityHandler godoc
//
//	@Summary		Availability calendar
//	@Description	Per-day booked, blocked and selectable flags between from and to (inclusive). Defaults to the next 90 days.
//	@Tags			booking
//	@Produce		json
//	@Param			from	query		string	false	"First day, YYYY-MM-DD"
//	@Param			to		query		string	false	"Last day, YYYY-MM-DD"
//	@Success		200		{object}	AvailabilityResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/availability [get]
func (app *application) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	today := app.dossier.Today()
	from, to, err := params.ParseSpan(r.URL.Query(), today, 90)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	key := calendar.Format(today) + ":" + calendar.Format(from) + ":" + calendar.Format(to)
	resp, err := snapshot.Load(r.Context(), app.views, snapshot.ViewAvailability, key, func(ctx context.Context) (AvailabilityResponse, error) {
		snap, err := app.dossier.Snapshot(ctx)
		if err != nil {
			return AvailabilityResponse{}, err
		}
		return AvailabilityResponse{
			From:  calendar.Format(from),
			To:    calendar.Format(to),
			Today: calendar.Format(today),
			Days:  calendar.Span(from, to, snap.Bookings, snap.Blocks, today),
		}, nil
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// PublicRule is a seasonal rule as the booking widget sees it.
type PublicRule struct {
	Name         string  `json:"name"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	NightlyPrice float64 `json:"nightly_price"`
	MinStay      *int    `json:"min_stay,omitempty"`
}

// PricingResponse is everything the booking widget needs to price a stay.
type PricingResponse struct {
	BasePrice     float64      `json:"base_price"`
	CleaningFee   float64      `json:"cleaning_fee"`
	MinStayNights int          `json:"min_stay_nights"`
	DepositRatio  float64      `json:"deposit_ratio"`
	MaxGuests     int          `json:"max_guests"`
	CheckInTime   string       `json:"check_in_time"`
	CheckOutTime  string       `json:"check_out_time"`
	Currency      string       `json:"currency"`
	Rules         []PublicRule `json:"rules"`
}

func publicRules(rules []pricingrules.Rule) []PublicRule {
	out := make([]PublicRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, PublicRule{
			Name:         rule.Name,
			StartDate:    calendar.Format(rule.StartDate),
			EndDate:      calendar.Format(rule.EndDate),
			NightlyPrice: rule.NightlyPrice,
			MinStay:      rule.MinStay,
		})
	}
	return out
}

// pricingHandler godoc
//
//	@Summary		Public pricing
//	@Description	Base price, active seasonal rules and the fixed booking policy.
//	@Tags			booking
//	@Produce		json
//	@Success		200	{object}	PricingResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/pricing [get]
func (app *application) pricingHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := snapshot.Load(r.Context(), app.views, snapshot.ViewPricing, "public", func(ctx context.Context) (PricingResponse, error) {
		st, _, err := app.store.Settings.Load(ctx)
		if err != nil {
			return PricingResponse{}, apperr.Storage("load settings", err)
		}
		rules, err := app.store.PricingRules.ListActive(ctx)
		if err != nil {
			return PricingResponse{}, apperr.Storage("list pricing rules", err)
		}
		policy := app.dossier.Policy()
		return PricingResponse{
			BasePrice:     st.BasePrice,
			CleaningFee:   policy.CleaningFee,
			MinStayNights: policy.MinStayNights,
			DepositRatio:  policy.DepositRatio,
			MaxGuests:     st.MaxGuests,
			CheckInTime:   st.CheckInTime,
			CheckOutTime:  st.CheckOutTime,
			Currency:      st.Currency,
			Rules:         publicRules(rules),
		}, nil
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RangePayload struct {
	CheckIn  string `json:"check_in" validate:"required,isoday"`
	CheckOut string `json:"check_out" validate:"required,isoday"`
}

// quoteHandler godoc
//
//	@Summary		Quote a stay
//	@Description	Validates [check_in, check_out) against availability and the minimum stay, then prices it night by night.
//	@Tags			booking
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RangePayload	true	"Stay"
//	@Success		200		{object}	pricing.Quote
//	@Failure		409		{object}	ErrorResponse	"unavailable_range"
//	@Failure		422		{object}	ErrorResponse	"invalid_dates or min_stay_not_met"
//	@Router			/quote [post]
func (app *application) quoteHandler(w http.ResponseWriter, r *http.Request) {
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

	quote, err := app.dossier.Quote(r.Context(), checkIn, checkOut)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, quote); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SelectionPayload struct {
	Start  string `json:"start,omitempty" validate:"omitempty,isoday"`
	End    string `json:"end,omitempty" validate:"omitempty,isoday"`
	Date   string `json:"date,omitempty" validate:"omitempty,isoday"`
	Guests int    `json:"guests,omitempty"`
}

// Rejection explains why the last step did not go through.
type Rejection struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type SelectionResponse struct {
	State     string                `json:"state"`
	Start     string                `json:"start,omitempty"`
	End       string                `json:"end,omitempty"`
	Guests    int                   `json:"guests"`
	Stay      *selection.PricedStay `json:"stay,omitempty"`
	Rejection *Rejection            `json:"rejection,omitempty"`
}

func rejectionOf(err error) *Rejection {
	if err == nil {
		return nil
	}
	_, code, _ := apperr.Classify(err)
	rej := &Rejection{Code: code, Message: err.Error()}
	var minStay *apperr.MinStayError
	if errors.As(err, &minStay) {
		rej.Details = map[string]any{"required": minStay.Required}
	}
	return rej
}

// selectionHandler godoc
//
//	@Summary		Date picker step
//	@Description	Replays the client's current pick (start, end) against fresh availability, then applies the clicked date.
//	@Description	A rejected end date becomes the new start; the rejection is reported alongside the new state.
//	@Tags			booking
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SelectionPayload	true	"Current pick and clicked date"
//	@Success		200		{object}	SelectionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/selection [post]
func (app *application) selectionHandler(w http.ResponseWriter, r *http.Request) {
	var payload SelectionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	snap, err := app.dossier.Snapshot(r.Context())
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	sel, rejected := replaySelection(payload, snap)

	if err := app.jsonResponse(w, http.StatusOK, selectionResponse(sel, rejected)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// replaySelection rebuilds the client's pick against snap and applies the
// clicked date. The first rejection met along the way is returned.
func replaySelection(p SelectionPayload, snap selection.Snapshot) (selection.Selection, error) {
	var (
		sel      selection.Selection
		rejected error
	)
	step := func(s string) {
		if s == "" {
			return
		}
		d, _ := calendar.ParseDay(s)
		if err := sel.Select(d, snap); err != nil && rejected == nil {
			rejected = err
		}
	}

	if p.Start != "" && p.End != "" {
		start, _ := calendar.ParseDay(p.Start)
		end, _ := calendar.ParseDay(p.End)
		sel, rejected = selection.Restore(start, end, snap)
	} else {
		step(p.Start)
	}
	sel.SetGuests(p.Guests, snap.MaxGuests)
	if rejected != nil {
		// A stale pick is reported without applying the click on top.
		return sel, rejected
	}
	step(p.Date)
	return sel, rejected
}

func selectionResponse(sel selection.Selection, rejected error) SelectionResponse {
	resp := SelectionResponse{
		State:     sel.State.String(),
		Guests:    sel.Guests,
		Rejection: rejectionOf(rejected),
	}
	if !sel.Start.IsZero() {
		resp.Start = calendar.Format(sel.Start)
	}
	if !sel.End.IsZero() {
		resp.End = calendar.Format(sel.End)
	}
	if stay, ok := sel.Stay(); ok {
		resp.Stay = &stay
	}
	return resp
}

type CreateBookingPayload struct {
	CheckIn     string   `json:"check_in" validate:"required,isoday"`
	CheckOut    string   `json:"check_out" validate:"required,isoday"`
	Guests      int      `json:"guests" validate:"gte=1"`
	GuestName   string   `json:"guest_name" validate:"max=120"`
	GuestEmail  string   `json:"guest_email" validate:"omitempty,email,max=255"`
	GuestPhone  string   `json:"guest_phone" validate:"max=40"`
	Message     *string  `json:"message,omitempty" validate:"omitempty,max=2000"`
	Language    string   `json:"language,omitempty" validate:"omitempty,oneof=en fr de nl es it"`
	QuotedTotal *float64 `json:"quoted_total,omitempty" validate:"omitempty,gt=0"`
}

type CreateBookingResponse struct {
	Token      string         `json:"token"`
	Reference  string         `json:"reference"`
	DossierURL string         `json:"dossier_url"`
	Contact    outreach.Links `json:"contact"`
	Booking    any            `json:"booking"`
}

// createBookingHandler godoc
//
//	@Summary		Request a booking
//	@Description	Creates a pending booking. quoted_total, when sent, must match the server's price.
//	@Tags			booking
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBookingPayload	true	"Booking request"
//	@Success		201		{object}	CreateBookingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"unavailable_range or price_changed"
//	@Failure		422		{object}	ErrorResponse	"invalid_dates, min_stay_not_met or required_fields_missing"
//	@Failure		429		{object}	ErrorResponse
//	@Router			/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateBookingPayload
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

	b, err := app.dossier.CreateBooking(r.Context(), dossier.NewBooking{
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Guests:      payload.Guests,
		GuestName:   payload.GuestName,
		GuestEmail:  payload.GuestEmail,
		GuestPhone:  payload.GuestPhone,
		Message:     payload.Message,
		Language:    payload.Language,
		QuotedTotal: payload.QuotedTotal,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	caller := callerForToken(b)
	ref := app.refs.Encode(b.ID)
	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := CreateBookingResponse{
		Token:      b.PublicToken,
		Reference:  ref,
		DossierURL: app.outreach.DossierURL(b.PublicToken),
		Contact:    app.outreach.GuestToOwner(b, ref),
		Booking:    view,
	}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ContactPayload struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Subject  *string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Body     string  `json:"body" validate:"required,max=5000"`
	Language string  `json:"language,omitempty" validate:"omitempty,max=8"`
}

// createContactMessageHandler godoc
//
//	@Summary		Contact form
//	@Description	Stores a message for the owner.
//	@Tags			booking
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ContactPayload	true	"Message"
//	@Success		201		{object}	messages.Message
//	@Failure		400		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Router			/contact [post]
func (app *application) createContactMessageHandler(w http.ResponseWriter, r *http.Request) {
	var payload ContactPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	lang := payload.Language
	if lang == "" {
		lang = "en"
	}
	m := &messages.Message{
		Name:     strings.TrimSpace(payload.Name),
		Email:    strings.TrimSpace(payload.Email),
		Phone:    payload.Phone,
		Subject:  payload.Subject,
		Body:     payload.Body,
		Language: lang,
	}
	if err := app.store.Messages.Create(r.Context(), m); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.views.Touch(r.Context(), snapshot.ContactMessages)
	app.logger.Infow("contact message received", "message_id", m.ID)

	if err := app.jsonResponse(w, http.StatusCreated, m); err != nil {
		app.internalServerError(w, r, err)
	}
}

// callerForToken is the guest who just created b.
func callerForToken(b *bookings.Booking) access.Caller {
	return access.TokenHolder(b.PublicToken)
}
