package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"rental/internal/apperr"
	"rental/internal/auth"
)

type CreateTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// TokenResponse represents the structure of the tokens in the response. made for swagger doc success output
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AdminID      string `json:"admin_id"`
	Role         string `json:"role"`
}

// TokenEnvelope wraps TokenResponse. made for swagger doc success output
type TokenEnvelope struct {
	Data TokenResponse `json:"data"`
}

func (app *application) issueTokens(w http.ResponseWriter, r *http.Request, adminID int64) {
	accessToken, refreshToken, err := app.authenticator.GenerateTokens(adminID, auth.RoleAdmin)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Admins.SaveRefreshToken(r.Context(), adminID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AdminID:      strconv.FormatInt(adminID, 10),
		Role:         auth.RoleAdmin,
	}
	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTokenHandler godoc
//
//	@Summary		Admin login
//	@Description	Exchanges admin credentials for an access and a refresh token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTokenPayload	true	"Admin credentials"
//	@Success		200		{object}	TokenEnvelope
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	admin, err := app.store.Admins.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := admin.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	app.logger.Infow("admin signed in", "admin_id", admin.ID)
	app.issueTokens(w, r, admin.ID)
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh authentication tokens
//	@Description	Validates the refresh token against the stored one and rotates both tokens.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshPayload	true	"Refresh token payload"
//	@Success		200		{object}	TokenEnvelope
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token: %w", err))
		return
	}

	adminID, role, err := auth.Subject(token)
	if err != nil || role != auth.RoleAdmin {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh claims"))
		return
	}

	savedToken, err := app.store.Admins.GetRefreshToken(r.Context(), adminID)
	if err != nil || savedToken != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token mismatch"))
		return
	}

	app.issueTokens(w, r, adminID)
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Drops the stored refresh token of the signed-in admin.
//	@Tags			authentication
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	admin := getAdminFromContext(r)

	if err := app.store.Admins.DeleteRefreshToken(r.Context(), admin.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
