package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rental/internal/apperr"
)

// ErrorResponse is the body of every failed request.
//
//	@name			ErrorResponse
//	@description	Error envelope. code and details are set for booking-flow failures.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Message string         `json:"message" example:"selected range overlaps a booked or blocked date"`
	Status  int            `json:"status" example:"409"`
	Code    string         `json:"code,omitempty" example:"unavailable_range"`
	Details map[string]any `json:"details,omitempty"`
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter.String())
}

// domainErrorResponse renders a booking-flow error with its stable code.
// Storage and unknown failures are logged and hidden behind a 500.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, code, ok := apperr.Classify(err)
	if !ok || status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		app.internalServerError(w, r, err)
		return
	}

	body := ErrorResponse{
		Success: false,
		Message: err.Error(),
		Status:  status,
		Code:    code,
	}

	var minStay *apperr.MinStayError
	var fields *apperr.FieldsError
	switch {
	case errors.As(err, &minStay):
		body.Details = map[string]any{"required": minStay.Required}
	case errors.As(err, &fields):
		body.Details = map[string]any{"fields": fields.Fields}
	}

	if status == http.StatusBadGateway {
		app.logger.Errorw("file storage error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		body.Message = "file storage is unavailable"
	} else {
		app.logger.Infow("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", err.Error())
	}

	writeJSON(w, status, body)
}
