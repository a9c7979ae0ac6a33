package messages

import (
	"context"

	"rental/internal/apperr"
	"rental/internal/infra/dbx"
)

type Store interface {
	Create(ctx context.Context, m *Message) error
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Message, int, error)
	SetRead(ctx context.Context, id int64, read bool) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

func (r *Repository) Create(ctx context.Context, m *Message) error {
	const q = `
        INSERT INTO contact_messages (name, email, phone, subject, body, language)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, read, created_at
    `
	return r.q.QueryRow(ctx, q, m.Name, m.Email, m.Phone, m.Subject, m.Body, m.Language).
		Scan(&m.ID, &m.Read, &m.CreatedAt)
}

func (r *Repository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Message, int, error) {
	query := `
        SELECT id, name, email, phone, subject, body, language, read, created_at, COUNT(*) OVER()
        FROM contact_messages`
	if unreadOnly {
		query += ` WHERE NOT read`
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2"

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []Message
		total int
	)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Body, &m.Language, &m.Read, &m.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *Repository) SetRead(ctx context.Context, id int64, read bool) error {
	res, err := r.q.Exec(ctx, `UPDATE contact_messages SET read = $1 WHERE id = $2`, read, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
