package pricingrules

import (
	"context"
	"errors"

	"rental/internal/apperr"
	"rental/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	List(ctx context.Context) ([]Rule, error)
	ListActive(ctx context.Context) ([]Rule, error)
	GetByID(ctx context.Context, id int64) (*Rule, error)
	Create(ctx context.Context, rule *Rule) error
	Update(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

// Rules are always returned in (start_date, id) order; the pricing engine
// picks the first matching rule in that order.
const selectRules = `
    SELECT id, name, start_date, end_date, nightly_price, min_stay, active, created_at, updated_at
    FROM pricing_rules`

func (r *Repository) list(ctx context.Context, query string) ([]Rule, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.StartDate, &rule.EndDate, &rule.NightlyPrice,
			&rule.MinStay, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]Rule, error) {
	return r.list(ctx, selectRules+` ORDER BY start_date, id`)
}

func (r *Repository) ListActive(ctx context.Context) ([]Rule, error) {
	return r.list(ctx, selectRules+` WHERE active ORDER BY start_date, id`)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	var rule Rule
	err := r.q.QueryRow(ctx, selectRules+` WHERE id = $1`, id).Scan(
		&rule.ID, &rule.Name, &rule.StartDate, &rule.EndDate, &rule.NightlyPrice,
		&rule.MinStay, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) Create(ctx context.Context, rule *Rule) error {
	const q = `
        INSERT INTO pricing_rules (name, start_date, end_date, nightly_price, min_stay, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	return r.q.QueryRow(ctx, q,
		rule.Name, rule.StartDate, rule.EndDate, rule.NightlyPrice, rule.MinStay, rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *Repository) Update(ctx context.Context, rule *Rule) error {
	const q = `
        UPDATE pricing_rules
        SET name = $2, start_date = $3, end_date = $4, nightly_price = $5,
            min_stay = $6, active = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.q.QueryRow(ctx, q,
		rule.ID, rule.Name, rule.StartDate, rule.EndDate, rule.NightlyPrice, rule.MinStay, rule.Active,
	).Scan(&rule.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
