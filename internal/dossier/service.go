package dossier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"rental/internal/access"
	"rental/internal/apperr"
	"rental/internal/blob"
	"rental/internal/calendar"
	"rental/internal/domain/bookings"
	"rental/internal/domain/storage"
	"rental/internal/pricing"
	"rental/internal/selection"
	"rental/internal/snapshot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator drops cached views after a committed mutation.
type Invalidator interface {
	Touch(ctx context.Context, entities ...snapshot.Entity)
}

type Config struct {
	Policy       pricing.Policy
	Location     *time.Location
	ConfirmTTL   time.Duration
	SignedURLTTL time.Duration
}

// Service performs every guest and admin mutation of a booking. Each
// method authorizes the caller first and leaves the record untouched on
// any error.
type Service struct {
	bookings bookings.Store
	uow      storage.UnitOfWork
	blobs    blob.Store
	views    Invalidator
	confirms *Confirmations
	cfg      Config
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(cfg Config, bs bookings.Store, uow storage.UnitOfWork, blobs blob.Store, views Invalidator, logger *zap.SugaredLogger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ConfirmTTL == 0 {
		cfg.ConfirmTTL = 2 * time.Minute
	}
	if cfg.SignedURLTTL == 0 {
		cfg.SignedURLTTL = time.Hour
	}
	return &Service{
		bookings: bs,
		uow:      uow,
		blobs:    blobs,
		views:    views,
		confirms: NewConfirmations(cfg.ConfirmTTL),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Policy() pricing.Policy { return s.cfg.Policy }

func (s *Service) Today() time.Time {
	return calendar.Today(s.now(), s.cfg.Location)
}

func (s *Service) loadSnapshot(ctx context.Context, tx *storage.Tx) (selection.Snapshot, error) {
	active, err := tx.Bookings.ListActive(ctx)
	if err != nil {
		return selection.Snapshot{}, apperr.Storage("list bookings", err)
	}
	blocks, err := tx.BlockedDates.List(ctx)
	if err != nil {
		return selection.Snapshot{}, apperr.Storage("list blocked dates", err)
	}
	rules, err := tx.PricingRules.ListActive(ctx)
	if err != nil {
		return selection.Snapshot{}, apperr.Storage("list pricing rules", err)
	}
	st, unknown, err := tx.Settings.Load(ctx)
	if err != nil {
		return selection.Snapshot{}, apperr.Storage("load settings", err)
	}
	if len(unknown) > 0 {
		s.logger.Warnw("ignoring unknown settings keys", "keys", unknown)
	}
	return selection.Snapshot{
		Bookings:  active,
		Blocks:    blocks,
		Engine:    pricing.NewEngine(rules, st.BasePrice, s.cfg.Policy),
		MaxGuests: st.MaxGuests,
		Today:     s.Today(),
	}, nil
}

// Snapshot reads a consistent availability and pricing snapshot.
func (s *Service) Snapshot(ctx context.Context) (selection.Snapshot, error) {
	var snap selection.Snapshot
	err := s.uow.WithTx(ctx, func(tx *storage.Tx) error {
		var err error
		snap, err = s.loadSnapshot(ctx, tx)
		return err
	})
	return snap, err
}

// Quote validates [checkIn, checkOut) and prices it.
func (s *Service) Quote(ctx context.Context, checkIn, checkOut time.Time) (pricing.Quote, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	if _, err := selection.ValidateRange(checkIn, checkOut, snap); err != nil {
		return pricing.Quote{}, err
	}
	return snap.Engine.Quote(checkIn, checkOut), nil
}

type NewBooking struct {
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	GuestName   string
	GuestEmail  string
	GuestPhone  string
	Message     *string
	Language    string
	QuotedTotal *float64
}

// CreateBooking re-validates the request against the current snapshot and
// inserts a pending booking. A stale quote is rejected, never repriced.
func (s *Service) CreateBooking(ctx context.Context, req NewBooking) (*bookings.Booking, error) {
	var b *bookings.Booking
	err := s.uow.WithTx(ctx, func(tx *storage.Tx) error {
		snap, err := s.loadSnapshot(ctx, tx)
		if err != nil {
			return err
		}

		sel := selection.Selection{Guests: req.Guests}
		if err := sel.Select(req.CheckIn, snap); err != nil {
			return err
		}
		if err := sel.Select(req.CheckOut, snap); err != nil {
			return err
		}
		contact := selection.Contact{Name: req.GuestName, Email: req.GuestEmail, Phone: req.GuestPhone}
		if err := sel.CanSubmit(contact, snap.MaxGuests); err != nil {
			return err
		}
		stay, _ := sel.Stay()

		if req.QuotedTotal != nil && pricing.Round2(*req.QuotedTotal) != stay.TotalPrice {
			return fmt.Errorf("%w: quoted %.2f, now %.2f", apperr.ErrPriceChanged, *req.QuotedTotal, stay.TotalPrice)
		}

		lang := req.Language
		if lang == "" {
			lang = "en"
		}
		b = &bookings.Booking{
			PublicToken:   uuid.NewString(),
			GuestName:     strings.TrimSpace(req.GuestName),
			GuestEmail:    strings.TrimSpace(req.GuestEmail),
			GuestPhone:    strings.TrimSpace(req.GuestPhone),
			CheckIn:       stay.CheckIn,
			CheckOut:      stay.CheckOut,
			Guests:        sel.Guests,
			Message:       req.Message,
			Language:      lang,
			Status:        bookings.StatusPending,
			TotalPrice:    stay.TotalPrice,
			CleaningFee:   s.cfg.Policy.CleaningFee,
			DepositAmount: stay.Deposit,
		}
		return apperr.Storage("create booking", tx.Bookings.Create(ctx, b))
	})
	if err != nil {
		return nil, err
	}

	s.views.Touch(ctx, snapshot.Bookings)
	s.logger.Infow("booking created", "booking_id", b.ID, "check_in", calendar.Format(b.CheckIn), "check_out", calendar.Format(b.CheckOut), "total", b.TotalPrice)
	return b, nil
}

func (s *Service) GetByToken(ctx context.Context, token string) (*bookings.Booking, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.ErrNotFound
	}
	b, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, apperr.Storage("get booking", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*bookings.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("get booking", err)
	}
	return b, nil
}

// Dossier resolves a token for c, who must be allowed to view it.
func (s *Service) Dossier(ctx context.Context, c access.Caller, token string) (*bookings.Booking, error) {
	b, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(c, access.ActionViewDossier, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Upload is a file received from a caller.
type Upload struct {
	Body        io.Reader
	ContentType string
}

// SubmitSignedContract stores the guest's signed copy and completes the
// guest signature gate. A later upload replaces the earlier file. The gate
// is re-checked on the locked row after the upload.
func (s *Service) SubmitSignedContract(ctx context.Context, c access.Caller, token, signerName string, up Upload) (*bookings.Booking, error) {
	current, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(c, access.ActionUploadSignedContract, current); err != nil {
		return nil, err
	}
	if !current.ContractSent {
		return nil, apperr.ErrContractNotYetSent
	}
	ext, err := blob.Extension(up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	now := s.now()
	path := blob.GuestSignedPath(current.PublicToken, ext, now)
	if err := s.blobs.Upload(ctx, blob.SignedContracts, path, up.Body, up.ContentType); err != nil {
		return nil, apperr.Blob("upload signed contract", err)
	}

	name := strings.TrimSpace(signerName)
	b, err := s.mutate(ctx, c, access.ActionUploadSignedContract, current.ID, func(_ *storage.Tx, b *bookings.Booking) error {
		if !b.ContractSent {
			return apperr.ErrContractNotYetSent
		}
		if name == "" {
			name = b.GuestName
		}
		if err := Mark(b, GateGuestContractSigned, now); err != nil {
			return err
		}
		b.GuestContractSignedAt = &now
		b.GuestSignerName = &name
		b.GuestSignedPath = &path
		return nil
	})
	if err != nil {
		s.logger.Warnw("signed contract stored without a booking reference", "booking_id", current.ID, "path", path, "error", err)
		return nil, err
	}
	s.logger.Infow("guest contract signed", "booking_id", b.ID, "signer", name, "path", path)
	return b, nil
}

type Review struct {
	Author string
	Rating *int
	Text   string
}

// SubmitReview records the single review of a concluded confirmed stay.
// The rating defaults to 5 and is clamped into [1, 5].
func (s *Service) SubmitReview(ctx context.Context, c access.Caller, token string, r Review) (*bookings.Booking, error) {
	current, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(r.Text)
	rating := 5
	if r.Rating != nil {
		rating = min(max(*r.Rating, 1), 5)
	}
	author := strings.TrimSpace(r.Author)

	b, err := s.mutate(ctx, c, access.ActionSubmitReview, current.ID, func(_ *storage.Tx, b *bookings.Booking) error {
		if err := access.ReviewWindow(b, s.Today()); err != nil {
			return err
		}
		if text == "" {
			return &apperr.FieldsError{Fields: []string{"text"}}
		}
		if author == "" {
			author = b.GuestName
		}
		now := s.now()
		b.ReviewAuthor = &author
		b.ReviewRating = &rating
		b.ReviewText = &text
		b.ReviewSubmittedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("review submitted", "booking_id", b.ID, "rating", rating)
	return b, nil
}

// checkReoccupancy rejects a status change that puts an inactive booking
// back on the calendar over someone else's nights or a block.
func (s *Service) checkReoccupancy(ctx context.Context, tx *storage.Tx, b *bookings.Booking, from bookings.Status) error {
	if from.HoldsDates() || !b.Status.HoldsDates() {
		return nil
	}
	snap, err := s.loadSnapshot(ctx, tx)
	if err != nil {
		return err
	}
	if calendar.HasUnavailableInRange(b.CheckIn, b.CheckOut, calendar.Excluding(snap.Bookings, b.ID), snap.Blocks) {
		return apperr.ErrUnavailableRange
	}
	return nil
}

// mutate locks a booking inside a transaction, applies fn and writes the
// result. Nothing is written when fn fails.
func (s *Service) mutate(ctx context.Context, c access.Caller, action access.Action, id int64, fn func(tx *storage.Tx, b *bookings.Booking) error) (*bookings.Booking, error) {
	var out *bookings.Booking
	err := s.uow.WithTx(ctx, func(tx *storage.Tx) error {
		b, err := tx.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return apperr.Storage("get booking", err)
		}
		if err := access.Authorize(c, action, b); err != nil {
			return err
		}
		if err := fn(tx, b); err != nil {
			return err
		}
		if err := tx.Bookings.Update(ctx, b); err != nil {
			return apperr.Storage("update booking", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.views.Touch(ctx, snapshot.Bookings)
	return out, nil
}

// SetGate marks or unmarks a settlement gate. Unmarking clears every
// dependent gate; the cleared gates are returned.
func (s *Service) SetGate(ctx context.Context, c access.Caller, id int64, g Gate, done bool) (*bookings.Booking, []Gate, error) {
	var cleared []Gate
	b, err := s.mutate(ctx, c, access.ActionToggleGate, id, func(tx *storage.Tx, b *bookings.Booking) error {
		from := b.Status
		if done {
			if err := Mark(b, g, s.now()); err != nil {
				return err
			}
		} else {
			cleared = Unmark(b, g)
		}
		return s.checkReoccupancy(ctx, tx, b, from)
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Infow("booking gate updated", "booking_id", id, "gate", g.String(), "done", done, "cleared", gateNamesOf(cleared), "status", b.Status)
	return b, cleared, nil
}

func gateNamesOf(gs []Gate) []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.String())
	}
	return out
}

// UploadContract stores a new owner contract. Any earlier guest signature
// is void: the guest file is cleared and gates from the signature on reset.
func (s *Service) UploadContract(ctx context.Context, c access.Caller, id int64, up Upload) (*bookings.Booking, []Gate, error) {
	ext, err := blob.Extension(up.ContentType)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := access.Authorize(c, access.ActionUploadContract, current); err != nil {
		return nil, nil, err
	}

	path := blob.OwnerContractPath(id, ext, s.now())
	if err := s.blobs.Upload(ctx, blob.Contracts, path, up.Body, up.ContentType); err != nil {
		return nil, nil, apperr.Blob("upload contract", err)
	}

	var cleared []Gate
	b, err := s.mutate(ctx, c, access.ActionUploadContract, id, func(_ *storage.Tx, b *bookings.Booking) error {
		b.ContractPath = &path
		cleared = ResetSignature(b)
		return nil
	})
	if err != nil {
		s.logger.Warnw("owner contract stored without a booking reference", "booking_id", id, "path", path, "error", err)
		return nil, nil, err
	}
	s.logger.Infow("owner contract uploaded", "booking_id", id, "path", path, "cleared", gateNamesOf(cleared))
	return b, cleared, nil
}

// SaveStatus applies a drafted status. Cancelling needs the request twice;
// any other draft disarms a pending cancel. Leaving confirmed clears every
// gate that depends on the owner confirmation.
func (s *Service) SaveStatus(ctx context.Context, c access.Caller, id int64, status bookings.Status) (*bookings.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, status)
	}
	if status != bookings.StatusCancelled {
		s.confirms.Disarm(c.Identity, DestructiveCancel, id)
	}

	var cleared []Gate
	b, err := s.mutate(ctx, c, access.ActionChangeStatus, id, func(tx *storage.Tx, b *bookings.Booking) error {
		from := b.Status
		if status == bookings.StatusCancelled && from != bookings.StatusCancelled {
			if err := s.confirms.Confirm(c.Identity, DestructiveCancel, id, ""); err != nil {
				return err
			}
		}
		b.Status = status
		if from == bookings.StatusConfirmed && status != bookings.StatusConfirmed {
			cleared = Unmark(b, GateOwnerConfirmed)
		}
		return s.checkReoccupancy(ctx, tx, b, from)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("booking status saved", "booking_id", id, "status", status, "cleared", gateNamesOf(cleared))
	return b, nil
}

// Delete removes a booking permanently. A confirmed booking needs a reason
// before the first step; changing the reason restarts the confirmation.
func (s *Service) Delete(ctx context.Context, c access.Caller, id int64, reason string) (*bookings.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(c, access.ActionDelete, b); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if b.Status == bookings.StatusConfirmed && reason == "" {
		s.confirms.Disarm(c.Identity, DestructiveDelete, id)
		return nil, apperr.ErrReasonRequired
	}
	if err := s.confirms.Confirm(c.Identity, DestructiveDelete, id, reason); err != nil {
		return nil, err
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return nil, apperr.Storage("delete booking", err)
	}
	s.views.Touch(ctx, snapshot.Bookings)
	s.logger.Infow("booking deleted", "booking_id", id, "status", b.Status, "reason", reason, "by", c.Identity)
	return b, nil
}

// AmendDates moves a booking to [checkIn, checkOut), validated against
// every other booking and the blocks, and reprices it.
func (s *Service) AmendDates(ctx context.Context, c access.Caller, id int64, checkIn, checkOut time.Time) (*bookings.Booking, error) {
	b, err := s.mutate(ctx, c, access.ActionEditDates, id, func(tx *storage.Tx, b *bookings.Booking) error {
		snap, err := s.loadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		snap.Bookings = calendar.Excluding(snap.Bookings, b.ID)

		stay, err := selection.ValidateRange(checkIn, checkOut, snap)
		if err != nil {
			return err
		}
		b.CheckIn = stay.CheckIn
		b.CheckOut = stay.CheckOut
		b.TotalPrice = stay.TotalPrice
		b.CleaningFee = s.cfg.Policy.CleaningFee
		b.DepositAmount = stay.Deposit
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("booking dates amended", "booking_id", id, "check_in", calendar.Format(b.CheckIn), "check_out", calendar.Format(b.CheckOut), "total", b.TotalPrice)
	return b, nil
}

func (s *Service) UpdatePaymentNotes(ctx context.Context, c access.Caller, id int64, notes string) (*bookings.Booking, error) {
	b, err := s.mutate(ctx, c, access.ActionEditPaymentNotes, id, func(_ *storage.Tx, b *bookings.Booking) error {
		b.PaymentNotes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("payment notes updated", "booking_id", id)
	return b, nil
}

type ContractLinks struct {
	ContractURL    string `json:"contract_url,omitempty"`
	GuestSignedURL string `json:"guest_signed_url,omitempty"`
}

// ContractLinks resolves file URLs for c. The guest-signed file is only
// reachable through a short-lived signed URL, and only for admins.
func (s *Service) ContractLinks(ctx context.Context, c access.Caller, b *bookings.Booking) (ContractLinks, error) {
	var out ContractLinks
	if b.ContractPath != nil {
		u, err := s.blobs.PublicURL(blob.Contracts, *b.ContractPath)
		if err != nil {
			return out, apperr.Blob("contract url", err)
		}
		out.ContractURL = u
	}
	if b.GuestSignedPath != nil && access.Allowed(c, access.ActionViewFiles, b) {
		u, err := s.blobs.SignedURL(ctx, blob.SignedContracts, *b.GuestSignedPath, s.cfg.SignedURLTTL)
		if err != nil {
			return out, apperr.Blob("signed contract url", err)
		}
		out.GuestSignedURL = u
	}
	return out, nil
}
