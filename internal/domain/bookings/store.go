package bookings

import (
	"context"
	"errors"
	"fmt"

	"rental/internal/apperr"
	"rental/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// exclusionViolation is raised by bookings_no_overlap when two active
// bookings would share a night.
const exclusionViolation = "23P01"

type Store interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	// GetForUpdate reads a booking and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)
	GetByToken(ctx context.Context, token string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]Booking, int, error)
	ListActive(ctx context.Context) ([]Booking, error)
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) Store {
	return &Repository{q: q}
}

const columns = `
	id, public_token, guest_name, guest_email, guest_phone, check_in, check_out,
	guests, message, language, status, total_price, cleaning_fee, deposit_amount,
	payment_notes, whatsapp_notified, whatsapp_notified_at, contract_sent,
	contract_sent_at, guest_contract_signed, guest_contract_signed_at,
	guest_signer_name, deposit_paid, deposit_paid_at, remaining_paid,
	remaining_paid_at, contract_signed, contract_signed_at, contract_path,
	guest_signed_path, review_author, review_rating, review_text,
	review_submitted_at, created_at, updated_at`

func scanBooking(row pgx.Row, b *Booking) error {
	return row.Scan(
		&b.ID, &b.PublicToken, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.CheckIn, &b.CheckOut,
		&b.Guests, &b.Message, &b.Language, &b.Status, &b.TotalPrice, &b.CleaningFee, &b.DepositAmount,
		&b.PaymentNotes, &b.WhatsappNotified, &b.WhatsappNotifiedAt, &b.ContractSent,
		&b.ContractSentAt, &b.GuestContractSigned, &b.GuestContractSignedAt,
		&b.GuestSignerName, &b.DepositPaid, &b.DepositPaidAt, &b.RemainingPaid,
		&b.RemainingPaidAt, &b.ContractSigned, &b.ContractSignedAt, &b.ContractPath,
		&b.GuestSignedPath, &b.ReviewAuthor, &b.ReviewRating, &b.ReviewText,
		&b.ReviewSubmittedAt, &b.CreatedAt, &b.UpdatedAt,
	)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return fmt.Errorf("%w: %s", apperr.ErrUnavailableRange, pgErr.ConstraintName)
	}
	return err
}

// Create inserts a booking and fills in its ID and timestamps.
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	const q = `
        INSERT INTO bookings (
            public_token, guest_name, guest_email, guest_phone, check_in, check_out,
            guests, message, language, status, total_price, cleaning_fee, deposit_amount
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at, updated_at
    `
	err := r.q.QueryRow(ctx, q,
		b.PublicToken,
		b.GuestName,
		b.GuestEmail,
		b.GuestPhone,
		b.CheckIn,
		b.CheckOut,
		b.Guests,
		b.Message,
		b.Language,
		b.Status,
		b.TotalPrice,
		b.CleaningFee,
		b.DepositAmount,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var b Booking
	err := scanBooking(r.q.QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1`, id), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*Booking, error) {
	var b Booking
	err := scanBooking(r.q.QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1 FOR UPDATE`, id), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	return &b, nil
}

func (r *Repository) GetByToken(ctx context.Context, token string) (*Booking, error) {
	var b Booking
	err := scanBooking(r.q.QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE public_token = $1`, token), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking by token: %w", err)
	}
	return &b, nil
}

// List returns one page of bookings, newest first, and the total match count.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Booking, int, error) {
	base := `SELECT ` + columns + `, COUNT(*) OVER() FROM bookings`

	args := []any{}
	idx := 1
	if filter.Status != nil {
		base += fmt.Sprintf(" WHERE status = $%d", idx)
		args = append(args, *filter.Status)
		idx++
	}
	base += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, base, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []Booking
		total int
	)
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.PublicToken, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.CheckIn, &b.CheckOut,
			&b.Guests, &b.Message, &b.Language, &b.Status, &b.TotalPrice, &b.CleaningFee, &b.DepositAmount,
			&b.PaymentNotes, &b.WhatsappNotified, &b.WhatsappNotifiedAt, &b.ContractSent,
			&b.ContractSentAt, &b.GuestContractSigned, &b.GuestContractSignedAt,
			&b.GuestSignerName, &b.DepositPaid, &b.DepositPaidAt, &b.RemainingPaid,
			&b.RemainingPaidAt, &b.ContractSigned, &b.ContractSignedAt, &b.ContractPath,
			&b.GuestSignedPath, &b.ReviewAuthor, &b.ReviewRating, &b.ReviewText,
			&b.ReviewSubmittedAt, &b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// ListActive returns every pending or confirmed booking ordered by check-in.
func (r *Repository) ListActive(ctx context.Context) ([]Booking, error) {
	rows, err := r.q.Query(ctx, `
        SELECT `+columns+`
        FROM bookings
        WHERE status IN ('pending', 'confirmed')
        ORDER BY check_in, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update writes every mutable column of b in a single statement.
func (r *Repository) Update(ctx context.Context, b *Booking) error {
	const q = `
      UPDATE bookings SET
        guest_name = $2, guest_email = $3, guest_phone = $4, check_in = $5, check_out = $6,
        guests = $7, message = $8, language = $9, status = $10, total_price = $11,
        cleaning_fee = $12, deposit_amount = $13, payment_notes = $14,
        whatsapp_notified = $15, whatsapp_notified_at = $16,
        contract_sent = $17, contract_sent_at = $18,
        guest_contract_signed = $19, guest_contract_signed_at = $20, guest_signer_name = $21,
        deposit_paid = $22, deposit_paid_at = $23,
        remaining_paid = $24, remaining_paid_at = $25,
        contract_signed = $26, contract_signed_at = $27,
        contract_path = $28, guest_signed_path = $29,
        review_author = $30, review_rating = $31, review_text = $32, review_submitted_at = $33,
        updated_at = NOW()
      WHERE id = $1
      RETURNING updated_at
    `
	err := r.q.QueryRow(ctx, q,
		b.ID, b.GuestName, b.GuestEmail, b.GuestPhone, b.CheckIn, b.CheckOut,
		b.Guests, b.Message, b.Language, b.Status, b.TotalPrice,
		b.CleaningFee, b.DepositAmount, b.PaymentNotes,
		b.WhatsappNotified, b.WhatsappNotifiedAt,
		b.ContractSent, b.ContractSentAt,
		b.GuestContractSigned, b.GuestContractSignedAt, b.GuestSignerName,
		b.DepositPaid, b.DepositPaidAt,
		b.RemainingPaid, b.RemainingPaidAt,
		b.ContractSigned, b.ContractSignedAt,
		b.ContractPath, b.GuestSignedPath,
		b.ReviewAuthor, b.ReviewRating, b.ReviewText, b.ReviewSubmittedAt,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
