package admins

import (
	"context"
	"errors"

	"rental/internal/apperr"
	"rental/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	GetByID(ctx context.Context, id int64) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	SaveRefreshToken(ctx context.Context, id int64, token string) error
	GetRefreshToken(ctx context.Context, id int64) (string, error)
	DeleteRefreshToken(ctx context.Context, id int64) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

func (r *Repository) get(ctx context.Context, where string, arg any) (*Admin, error) {
	var a Admin
	err := r.q.QueryRow(ctx, `
        SELECT id, email, name, password_hash, created_at
        FROM admins
        WHERE `+where, arg).Scan(&a.ID, &a.Email, &a.Name, &a.Password.hash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Admin, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.get(ctx, "lower(email) = lower($1)", email)
}

func (r *Repository) SaveRefreshToken(ctx context.Context, id int64, token string) error {
	_, err := r.q.Exec(ctx, `UPDATE admins SET refresh_token = $1 WHERE id = $2`, token, id)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, id int64) (string, error) {
	var token *string
	err := r.q.QueryRow(ctx, `SELECT refresh_token FROM admins WHERE id = $1`, id).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	if token == nil {
		return "", apperr.ErrNotFound
	}
	return *token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `UPDATE admins SET refresh_token = NULL WHERE id = $1`, id)
	return err
}
