package dossier

import (
	"context"
	"io"
	"sort"
	"sync"

	"rental/internal/apperr"
	"rental/internal/blob"
	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/domain/pricingrules"
	"rental/internal/domain/settings"
	"rental/internal/domain/storage"
	"rental/internal/snapshot"
)

type memBookings struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]bookings.Booking
}

func newMemBookings() *memBookings {
	return &memBookings{rows: map[int64]bookings.Booking{}}
}

func (m *memBookings) Create(_ context.Context, b *bookings.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &b, nil
}

func (m *memBookings) GetForUpdate(ctx context.Context, id int64) (*bookings.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *memBookings) GetByToken(_ context.Context, token string) (*bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.PublicToken == token {
			return &b, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memBookings) List(_ context.Context, f bookings.Filter) ([]bookings.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []bookings.Booking
	for _, b := range m.rows {
		if f.Status == nil || *f.Status == b.Status {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (m *memBookings) ListActive(_ context.Context) ([]bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []bookings.Booking
	for _, b := range m.rows {
		if b.Status.HoldsDates() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (m *memBookings) Update(_ context.Context, b *bookings.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[b.ID]; !ok {
		return apperr.ErrNotFound
	}
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memBlocks struct{ rows []blockeddates.Range }

func (m *memBlocks) List(context.Context) ([]blockeddates.Range, error) { return m.rows, nil }

func (m *memBlocks) Create(_ context.Context, r *blockeddates.Range) error {
	r.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memBlocks) Delete(context.Context, int64) error { return nil }

type memRules struct{ rows []pricingrules.Rule }

func (m *memRules) List(context.Context) ([]pricingrules.Rule, error) { return m.rows, nil }

func (m *memRules) ListActive(context.Context) ([]pricingrules.Rule, error) {
	var out []pricingrules.Rule
	for _, r := range m.rows {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRules) GetByID(_ context.Context, id int64) (*pricingrules.Rule, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memRules) Create(_ context.Context, r *pricingrules.Rule) error {
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memRules) Update(context.Context, *pricingrules.Rule) error { return nil }

func (m *memRules) Delete(context.Context, int64) error { return nil }

type memSettings struct{ s settings.Settings }

func (m *memSettings) Load(context.Context) (settings.Settings, []string, error) {
	return m.s, nil, nil
}

func (m *memSettings) Save(_ context.Context, s settings.Settings) error {
	m.s = s
	return nil
}

// fakeUoW runs fn directly; the fakes have no rollback, so tests only rely
// on the service failing before it writes.
type fakeUoW struct{ tx *storage.Tx }

func (f *fakeUoW) WithTx(_ context.Context, fn func(tx *storage.Tx) error) error {
	return fn(f.tx)
}

// hookBlobs calls during before each upload, standing in for a concurrent
// request landing while the file is in flight.
type hookBlobs struct {
	blob.Store
	during func()
}

func (h *hookBlobs) Upload(ctx context.Context, bucket blob.Bucket, p string, r io.Reader, contentType string) error {
	if h.during != nil {
		h.during()
	}
	return h.Store.Upload(ctx, bucket, p, r, contentType)
}

type recordingViews struct {
	mu      sync.Mutex
	touched []snapshot.Entity
}

func (r *recordingViews) Touch(_ context.Context, entities ...snapshot.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, entities...)
}

func (r *recordingViews) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.touched)
}
