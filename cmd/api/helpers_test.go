package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rental/internal/apperr"
	"rental/internal/auth"
	"rental/internal/domain/admins"
	"rental/internal/domain/settings"
	"rental/internal/domain/storage"
	"rental/internal/snapshot"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdmins struct {
	byID    map[int64]*admins.Admin
	refresh map[int64]string
}

func (f *fakeAdmins) GetByID(_ context.Context, id int64) (*admins.Admin, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*admins.Admin, error) {
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAdmins) SaveRefreshToken(_ context.Context, id int64, token string) error {
	if f.refresh == nil {
		f.refresh = map[int64]string{}
	}
	f.refresh[id] = token
	return nil
}

func (f *fakeAdmins) GetRefreshToken(_ context.Context, id int64) (string, error) {
	if token, ok := f.refresh[id]; ok {
		return token, nil
	}
	return "", apperr.ErrNotFound
}

func (f *fakeAdmins) DeleteRefreshToken(_ context.Context, id int64) error {
	delete(f.refresh, id)
	return nil
}

type fakeSettings struct {
	err   error
	saved *settings.Settings
}

func (f *fakeSettings) Load(context.Context) (settings.Settings, []string, error) {
	return settings.Defaults(), nil, f.err
}

func (f *fakeSettings) Save(_ context.Context, st settings.Settings) error {
	if f.err != nil {
		return f.err
	}
	f.saved = &st
	return nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	app := &application{
		logger: zap.NewNop().Sugar(),
		store: &storage.Container{
			Admins: &fakeAdmins{byID: map[int64]*admins.Admin{
				1: {ID: 1, Email: "owner@example.com", Name: "Owner"},
			}},
			Settings: &fakeSettings{},
		},
		views:         snapshot.NewViews(snapshot.NewMemory(), time.Minute, zap.NewNop().Sugar()),
		authenticator: auth.NewJWTAuthenticator("access-secret", "refresh-secret", "rental", "rental", time.Hour, 24*time.Hour),
	}
	app.config.env = "test"
	return app
}

// trackView caches view once and returns a loader reporting how many times
// the view has been built so far.
func trackView(t *testing.T, app *application, view snapshot.View) func() int {
	t.Helper()
	builds := 0
	load := func() int {
		_, err := snapshot.Load(context.Background(), app.views, view, "tracked", func(context.Context) (int, error) {
			builds++
			return builds, nil
		})
		require.NoError(t, err)
		return builds
	}
	load()
	return load
}

// withURLParam attaches a chi route parameter to r.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(into))
}
