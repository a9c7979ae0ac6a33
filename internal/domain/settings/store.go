package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"rental/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	// Load returns the settings and the stored keys it did not recognise.
	Load(ctx context.Context) (Settings, []string, error)
	Save(ctx context.Context, s Settings) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

// fields binds every known key to its Settings field.
func fields(s *Settings) map[string]any {
	return map[string]any{
		KeyBasePrice:    &s.BasePrice,
		KeyMaxGuests:    &s.MaxGuests,
		KeyCheckInTime:  &s.CheckInTime,
		KeyCheckOutTime: &s.CheckOutTime,
		KeyCurrency:     &s.Currency,
	}
}

func (r *Repository) Load(ctx context.Context) (Settings, []string, error) {
	s := Defaults()
	bound := fields(&s)

	rows, err := r.q.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return s, nil, err
	}
	defer rows.Close()

	var unknown []string
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return s, nil, err
		}
		dst, ok := bound[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return s, nil, fmt.Errorf("settings key %q: %w", key, err)
		}
	}
	return s, unknown, rows.Err()
}

// Save upserts every key in one round-trip.
func (r *Repository) Save(ctx context.Context, s Settings) error {
	const q = `
        INSERT INTO settings (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `
	batch := &pgx.Batch{}
	for key, v := range fields(&s) {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("settings key %q: %w", key, err)
		}
		batch.Queue(q, key, raw)
	}

	br := r.q.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch upsert setting[%d]: %w", i, err)
		}
	}
	return nil
}
