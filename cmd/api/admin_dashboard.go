package main

import (
	"net/http"

	"rental/internal/apperr"
)

// getDashboardHandler godoc
//
//	@Summary		Back office overview
//	@Description	Booking counts per status, arrivals in the next 30 days, open settlement steps, revenue and unread messages.
//	@Tags			admin-bookings
//	@Produce		json
//	@Success		200	{object}	admindashboard.Overview
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard [get]
func (app *application) getDashboardHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := app.store.Dashboard.GetOverview(r.Context(), app.dossier.Today())
	if err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("dashboard", err))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, overview); err != nil {
		app.internalServerError(w, r, err)
	}
}
