package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"

	"rental/internal/access"
	"rental/internal/auth"
	"rental/internal/domain/admins"

	"github.com/go-chi/chi/v5"
)

type adminKey string

const adminCtx adminKey = "admin"

func getAdminFromContext(r *http.Request) *admins.Admin {
	if a, ok := r.Context().Value(adminCtx).(*admins.Admin); ok {
		return a
	}
	return nil
}

// callerFromRequest is the admin when one is authenticated, otherwise the
// holder of the {token} in the URL.
func callerFromRequest(r *http.Request) access.Caller {
	if a := getAdminFromContext(r); a != nil {
		return access.Admin(a.Email)
	}
	return access.TokenHolder(chi.URLParam(r, "token"))
}

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if username == "" || len(creds) != 2 ||
				subtle.ConstantTimeCompare([]byte(creds[0]), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(creds[1]), []byte(pass)) != 1 {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true, fmt.Errorf("authorization header is malformed")
	}
	return parts[1], true, nil
}

// authenticate resolves a bearer token into an admin account.
func (app *application) authenticate(ctx context.Context, token string) (*admins.Admin, error) {
	jwtToken, err := app.authenticator.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	adminID, role, err := auth.Subject(jwtToken)
	if err != nil {
		return nil, err
	}
	if role != auth.RoleAdmin {
		return nil, fmt.Errorf("role %q is not allowed", role)
	}
	return app.store.Admins.GetByID(ctx, adminID)
}

// AdminAuthMiddleware requires a valid admin access token.
func (app *application) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if !present {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		admin, err := app.authenticate(r.Context(), token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), adminCtx, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAdminMiddleware lets an admin token through on token-holder
// routes. Requests without credentials continue anonymously; bad
// credentials are rejected.
func (app *application) OptionalAdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		admin, err := app.authenticate(r.Context(), token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), adminCtx, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
