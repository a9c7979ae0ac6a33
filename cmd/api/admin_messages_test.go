package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rental/internal/apperr"
	"rental/internal/domain/messages"
	"rental/internal/snapshot"

	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	rows  []messages.Message
	lists int
}

func (f *fakeMessages) Create(_ context.Context, m *messages.Message) error {
	m.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMessages) List(_ context.Context, unreadOnly bool, limit, offset int) ([]messages.Message, int, error) {
	f.lists++
	var match []messages.Message
	for _, m := range f.rows {
		if !unreadOnly || !m.Read {
			match = append(match, m)
		}
	}
	total := len(match)
	if offset >= total {
		return nil, total, nil
	}
	return match[offset:min(offset+limit, total)], total, nil
}

func (f *fakeMessages) SetRead(_ context.Context, id int64, read bool) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Read = read
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeMessages) Delete(_ context.Context, id int64) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func newMessagesApp(t *testing.T) (*application, *fakeMessages) {
	t.Helper()
	app := newTestApplication(t)
	store := &fakeMessages{rows: []messages.Message{
		{ID: 1, Name: "Ana", Email: "ana@example.com", Body: "Is the pool heated?", Language: "en"},
		{ID: 2, Name: "Rui", Email: "rui@example.com", Body: "Parking?", Language: "pt", Read: true},
	}}
	app.store.Messages = store
	return app, store
}

func listMessages(t *testing.T, app *application, query string) MessageListResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	app.listMessagesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/messages"+query, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data MessageListResponse `json:"data"`
	}
	decodeBody(t, rr, &body)
	return body.Data
}

func TestListMessagesHandler(t *testing.T) {
	app, store := newMessagesApp(t)

	all := listMessages(t, app, "")
	require.Len(t, all.Messages, 2)
	require.Equal(t, 2, all.Pagination.Total)

	unread := listMessages(t, app, "?unread=true")
	require.Len(t, unread.Messages, 1)
	require.Equal(t, int64(1), unread.Messages[0].ID)

	page := listMessages(t, app, "?limit=1&page=2")
	require.Len(t, page.Messages, 1)
	require.True(t, page.Pagination.HasPrev)
	require.False(t, page.Pagination.HasNext)

	// Served from the cache the second time.
	listMessages(t, app, "")
	require.Equal(t, 3, store.lists)
}

func TestMarkMessageReadHandler(t *testing.T) {
	app, store := newMessagesApp(t)
	require.Len(t, listMessages(t, app, "?unread=true").Messages, 1)

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/v1/admin/messages/1/read", strings.NewReader(`{"read":true}`)), "messageID", "1")
	rr := httptest.NewRecorder()
	app.markMessageReadHandler(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.True(t, store.rows[0].Read)

	require.Empty(t, listMessages(t, app, "?unread=true").Messages)

	req = withURLParam(httptest.NewRequest(http.MethodPut, "/v1/admin/messages/7/read", strings.NewReader(`{"read":true}`)), "messageID", "7")
	rr = httptest.NewRecorder()
	app.markMessageReadHandler(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteMessageHandler(t *testing.T) {
	app, store := newMessagesApp(t)
	reload := trackView(t, app, snapshot.ViewMessages)

	rr := httptest.NewRecorder()
	app.deleteMessageHandler(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/admin/messages/2", nil), "messageID", "2"))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, store.rows, 1)
	require.Equal(t, 2, reload())

	rr = httptest.NewRecorder()
	app.deleteMessageHandler(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/admin/messages/0", nil), "messageID", "0"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, 2, reload())
}
