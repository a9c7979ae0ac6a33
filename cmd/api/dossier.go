package main

import (
	"context"
	"net/http"

	"rental/internal/access"
	"rental/internal/domain/bookings"
	"rental/internal/dossier"
	"rental/internal/snapshot"

	"github.com/go-chi/chi/v5"
)

// bookingView renders b for c with its file links, reference and dossier
// URL resolved.
func (app *application) bookingView(ctx context.Context, c access.Caller, b *bookings.Booking) (access.View, error) {
	files, err := app.dossier.ContractLinks(ctx, c, b)
	if err != nil {
		return access.View{}, err
	}
	return access.BuildView(c, b, app.dossier.Today(), access.Links{
		ContractURL:    files.ContractURL,
		GuestSignedURL: files.GuestSignedURL,
		DossierURL:     app.outreach.DossierURL(b.PublicToken),
		Reference:      app.refs.Encode(b.ID),
	}), nil
}

// getDossierHandler godoc
//
//	@Summary		Booking dossier
//	@Description	The booking and its settlement track as seen by the token holder, or by an admin when a bearer token is sent.
//	@Tags			dossier
//	@Produce		json
//	@Param			token	path		string	true	"Public booking token"
//	@Success		200		{object}	access.View
//	@Failure		404		{object}	ErrorResponse
//	@Router			/dossier/{token} [get]
func (app *application) getDossierHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	caller := callerFromRequest(r)

	b, err := snapshot.Load(r.Context(), app.views, snapshot.ViewDossier, token, func(ctx context.Context) (*bookings.Booking, error) {
		return app.dossier.GetByToken(ctx, token)
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := access.Authorize(caller, access.ActionViewDossier, b); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// uploadSignedContractHandler godoc
//
//	@Summary		Upload the signed contract
//	@Description	Multipart upload (field "file", PDF/JPEG/PNG/WEBP/HEIC up to 10 MB) of the guest's signed copy.
//	@Description	Allowed once the owner has sent the contract; a new upload replaces the previous one.
//	@Tags			dossier
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			token		path		string	true	"Public booking token"
//	@Param			file		formData	file	true	"Signed contract"
//	@Param			signer_name	formData	string	false	"Name of the signer"
//	@Success		200			{object}	access.View
//	@Failure		400			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse	"contract_not_yet_sent"
//	@Failure		502			{object}	ErrorResponse	"blob_failure"
//	@Router			/dossier/{token}/signed-contract [post]
func (app *application) uploadSignedContractHandler(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := readUpload(w, r, "file")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer cleanup()

	caller := callerFromRequest(r)
	b, err := app.dossier.SubmitSignedContract(r.Context(), caller, chi.URLParam(r, "token"), r.FormValue("signer_name"), up)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ReviewPayload struct {
	Author string `json:"author,omitempty" validate:"max=120"`
	Rating *int   `json:"rating,omitempty"`
	Text   string `json:"text" validate:"max=4000"`
}

// submitReviewHandler godoc
//
//	@Summary		Leave a review
//	@Description	One review per confirmed stay, from the check-out day on. Rating defaults to 5 and is clamped to 1..5.
//	@Tags			dossier
//	@Accept			json
//	@Produce		json
//	@Param			token	path		string			true	"Public booking token"
//	@Param			payload	body		ReviewPayload	true	"Review"
//	@Success		200		{object}	access.View
//	@Failure		409		{object}	ErrorResponse	"review_window_closed"
//	@Failure		422		{object}	ErrorResponse	"required_fields_missing"
//	@Router			/dossier/{token}/review [post]
func (app *application) submitReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload ReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caller := callerFromRequest(r)
	b, err := app.dossier.SubmitReview(r.Context(), caller, chi.URLParam(r, "token"), dossier.Review{
		Author: payload.Author,
		Rating: payload.Rating,
		Text:   payload.Text,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	view, err := app.bookingView(r.Context(), caller, b)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// shareDossierHandler godoc
//
//	@Summary		Share links
//	@Description	Dossier URL plus WhatsApp and mailto links to pass it on.
//	@Tags			dossier
//	@Produce		json
//	@Param			token	path		string	true	"Public booking token"
//	@Success		200		{object}	outreach.Links
//	@Failure		404		{object}	ErrorResponse
//	@Router			/dossier/{token}/share [get]
func (app *application) shareDossierHandler(w http.ResponseWriter, r *http.Request) {
	caller := callerFromRequest(r)
	b, err := app.dossier.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := access.Authorize(caller, access.ActionShareLink, b); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.outreach.Share(b)); err != nil {
		app.internalServerError(w, r, err)
	}
}
