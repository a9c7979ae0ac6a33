package blockeddates

import (
	"context"

	"rental/internal/apperr"
	"rental/internal/infra/dbx"
)

type Store interface {
	List(ctx context.Context) ([]Range, error)
	Create(ctx context.Context, r *Range) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

func (r *Repository) List(ctx context.Context) ([]Range, error) {
	rows, err := r.q.Query(ctx, `
        SELECT id, start_date, end_date, reason, created_at
        FROM blocked_dates
        ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Range
	for rows.Next() {
		var br Range
		if err := rows.Scan(&br.ID, &br.StartDate, &br.EndDate, &br.Reason, &br.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, br *Range) error {
	const q = `
        INSERT INTO blocked_dates (start_date, end_date, reason)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	return r.q.QueryRow(ctx, q, br.StartDate, br.EndDate, br.Reason).Scan(&br.ID, &br.CreatedAt)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM blocked_dates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
