package dossier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rental/internal/access"
	"rental/internal/apperr"
	"rental/internal/blob"
	"rental/internal/calendar"
	"rental/internal/domain/blockeddates"
	"rental/internal/domain/bookings"
	"rental/internal/domain/pricingrules"
	"rental/internal/domain/settings"
	"rental/internal/domain/storage"
	"rental/internal/pricing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type harness struct {
	svc      *Service
	bookings *memBookings
	blocks   *memBlocks
	rules    *memRules
	blobs    *blob.Memory
	views    *recordingViews
	now      time.Time
}

var admin = access.Admin("owner@example.com")

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bookings: newMemBookings(),
		blocks:   &memBlocks{},
		rules:    &memRules{},
		blobs:    blob.NewMemory(),
		views:    &recordingViews{},
		now:      time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	uow := &fakeUoW{tx: &storage.Tx{
		Bookings:     h.bookings,
		BlockedDates: h.blocks,
		PricingRules: h.rules,
		Settings:     &memSettings{s: settings.Defaults()},
	}}
	h.svc = NewService(Config{Policy: pricing.DefaultPolicy()}, h.bookings, uow, h.blobs, h.views, zap.NewNop().Sugar())
	h.svc.now = func() time.Time { return h.now }
	h.svc.confirms.now = func() time.Time { return h.now }
	return h
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDay(s)
	require.NoError(t, err)
	return d
}

func request(t *testing.T, in, out string) NewBooking {
	return NewBooking{
		CheckIn:    day(t, in),
		CheckOut:   day(t, out),
		Guests:     2,
		GuestName:  "Ana Silva",
		GuestEmail: "ana@example.com",
		GuestPhone: "+351 900 000 000",
		Language:   "pt",
	}
}

func (h *harness) create(t *testing.T, in, out string) *bookings.Booking {
	t.Helper()
	b, err := h.svc.CreateBooking(context.Background(), request(t, in, out))
	require.NoError(t, err)
	return b
}

func TestCreateBooking(t *testing.T) {
	h := newHarness(t)
	b := h.create(t, "2026-03-01", "2026-03-07")

	require.NotZero(t, b.ID)
	require.Len(t, b.PublicToken, 36)
	require.Equal(t, bookings.StatusPending, b.Status)
	require.Equal(t, 650.0, b.TotalPrice)
	require.Equal(t, 140.0, b.CleaningFee)
	require.Equal(t, 195.0, b.DepositAmount)
	require.Equal(t, "pt", b.Language)
	require.Equal(t, 1, h.views.count())
}

func TestCreateBooking_SeasonalPrice(t *testing.T) {
	h := newHarness(t)
	h.rules.rows = []pricingrules.Rule{{ID: 1, StartDate: day(t, "2026-02-01"), EndDate: day(t, "2026-02-28"), NightlyPrice: 120, Active: true}}

	b := h.create(t, "2026-02-10", "2026-02-16")
	require.Equal(t, 860.0, b.TotalPrice)
	require.Equal(t, 258.0, b.DepositAmount)
}

func TestCreateBooking_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t, "2026-03-01", "2026-03-07")
	h.blocks.rows = []blockeddates.Range{{ID: 1, StartDate: day(t, "2026-04-10"), EndDate: day(t, "2026-04-12")}}

	_, err := h.svc.CreateBooking(ctx, request(t, "2026-02-26", "2026-03-04"))
	require.ErrorIs(t, err, apperr.ErrUnavailableRange)

	_, err = h.svc.CreateBooking(ctx, request(t, "2026-04-04", "2026-04-10"))
	require.ErrorIs(t, err, apperr.ErrUnavailableRange)

	_, err = h.svc.CreateBooking(ctx, request(t, "2026-05-01", "2026-05-04"))
	var minStay *apperr.MinStayError
	require.True(t, errors.As(err, &minStay))
	require.Equal(t, 6, minStay.Required)

	_, err = h.svc.CreateBooking(ctx, request(t, "2026-01-10", "2026-01-16"))
	require.ErrorIs(t, err, apperr.ErrInvalidDates)

	req := request(t, "2026-05-01", "2026-05-08")
	req.GuestPhone = " "
	_, err = h.svc.CreateBooking(ctx, req)
	require.ErrorIs(t, err, apperr.ErrRequiredFieldsMissing)

	req = request(t, "2026-05-01", "2026-05-08")
	req.Guests = 9
	_, err = h.svc.CreateBooking(ctx, req)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	// Back-to-back turnover is allowed.
	h.create(t, "2026-03-07", "2026-03-13")
}

func TestCreateBooking_PriceChanged(t *testing.T) {
	h := newHarness(t)
	req := request(t, "2026-03-01", "2026-03-07")

	quoted := 640.0
	req.QuotedTotal = &quoted
	_, err := h.svc.CreateBooking(context.Background(), req)
	require.ErrorIs(t, err, apperr.ErrPriceChanged)

	quoted = 650.0
	_, err = h.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
}

func TestQuote(t *testing.T) {
	h := newHarness(t)
	q, err := h.svc.Quote(context.Background(), day(t, "2026-03-01"), day(t, "2026-03-07"))
	require.NoError(t, err)
	require.Equal(t, 650.0, q.Total)
	require.Equal(t, "2026-02-01", q.BalanceDueDate)

	_, err = h.svc.Quote(context.Background(), day(t, "2026-03-01"), day(t, "2026-03-03"))
	require.ErrorIs(t, err, apperr.ErrMinStayNotMet)
}

func TestSetGate_Sequence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")

	_, _, err := h.svc.SetGate(ctx, admin, b.ID, GateDepositPaid, true)
	require.ErrorIs(t, err, apperr.ErrGateSequenceViolation)

	for _, g := range Gates {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, g, true)
		require.NoError(t, err, g.String())
	}
	got, err := h.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, bookings.StatusConfirmed, got.Status)
	require.True(t, got.ContractSigned)

	got, cleared, err := h.svc.SetGate(ctx, admin, b.ID, GateContractSent, false)
	require.NoError(t, err)
	require.Len(t, cleared, 5)
	require.True(t, got.WhatsappNotified)
	require.False(t, got.GuestContractSigned)
	require.False(t, got.DepositPaid)
	require.Nil(t, got.RemainingPaidAt)
}

func TestSetGate_GuestForbidden(t *testing.T) {
	h := newHarness(t)
	b := h.create(t, "2026-03-01", "2026-03-07")

	_, _, err := h.svc.SetGate(context.Background(), access.TokenHolder(b.PublicToken), b.ID, GateWhatsappNotified, true)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSubmitSignedContract(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	guest := access.TokenHolder(b.PublicToken)
	upload := func() Upload { return Upload{Body: strings.NewReader("%PDF-1.7"), ContentType: "application/pdf"} }

	_, err := h.svc.SubmitSignedContract(ctx, guest, b.PublicToken, "", upload())
	require.ErrorIs(t, err, apperr.ErrContractNotYetSent)

	for _, g := range []Gate{GateWhatsappNotified, GateOwnerConfirmed, GateContractSent} {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, g, true)
		require.NoError(t, err)
	}

	_, err = h.svc.SubmitSignedContract(ctx, guest, b.PublicToken, "", Upload{Body: strings.NewReader("<html>"), ContentType: "text/html"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = h.svc.SubmitSignedContract(ctx, access.TokenHolder("someone-else"), b.PublicToken, "", upload())
	require.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := h.svc.SubmitSignedContract(ctx, guest, b.PublicToken, "", upload())
	require.NoError(t, err)
	require.True(t, got.GuestContractSigned)
	require.Equal(t, "Ana Silva", *got.GuestSignerName)
	require.True(t, strings.HasPrefix(*got.GuestSignedPath, b.PublicToken+"/"))

	data, _, ok := h.blobs.File(blob.SignedContracts, *got.GuestSignedPath)
	require.True(t, ok)
	require.Equal(t, "%PDF-1.7", string(data))

	links, err := h.svc.ContractLinks(ctx, guest, got)
	require.NoError(t, err)
	require.Empty(t, links.GuestSignedURL)

	links, err = h.svc.ContractLinks(ctx, admin, got)
	require.NoError(t, err)
	require.Contains(t, links.GuestSignedURL, "ttl=3600")
}

func TestSubmitSignedContract_ContractWithdrawnDuringUpload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	for _, g := range []Gate{GateWhatsappNotified, GateOwnerConfirmed, GateContractSent} {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, g, true)
		require.NoError(t, err)
	}

	h.svc.blobs = &hookBlobs{Store: h.blobs, during: func() {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, GateContractSent, false)
		require.NoError(t, err)
	}}

	_, err := h.svc.SubmitSignedContract(ctx, access.TokenHolder(b.PublicToken), b.PublicToken, "", Upload{Body: strings.NewReader("%PDF"), ContentType: "application/pdf"})
	require.ErrorIs(t, err, apperr.ErrContractNotYetSent)

	got, err := h.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.False(t, got.ContractSent)
	require.False(t, got.GuestContractSigned)
	require.Nil(t, got.GuestSignedPath)
}

func TestUploadContract_LogsOrphanedFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")

	core, logs := observer.New(zap.WarnLevel)
	h.svc.logger = zap.New(core).Sugar()
	h.svc.blobs = &hookBlobs{Store: h.blobs, during: func() {
		require.NoError(t, h.bookings.Delete(ctx, b.ID))
	}}

	_, _, err := h.svc.UploadContract(ctx, admin, b.ID, Upload{Body: strings.NewReader("%PDF"), ContentType: "application/pdf"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	entries := logs.FilterMessage("owner contract stored without a booking reference").All()
	require.Len(t, entries, 1)
	path, _ := entries[0].ContextMap()["path"].(string)
	_, _, ok := h.blobs.File(blob.Contracts, path)
	require.True(t, ok)
}

func TestUploadContract_ResetsSignature(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	for _, g := range Gates {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, g, true)
		require.NoError(t, err)
	}

	got, cleared, err := h.svc.UploadContract(ctx, admin, b.ID, Upload{Body: strings.NewReader("%PDF"), ContentType: "application/pdf"})
	require.NoError(t, err)
	require.Equal(t, []Gate{GateGuestContractSigned, GateDepositPaid, GateRemainingPaid, GateContractSigned}, cleared)
	require.True(t, got.ContractSent)
	require.NotNil(t, got.ContractPath)
	require.Nil(t, got.GuestSignedPath)

	links, err := h.svc.ContractLinks(ctx, access.TokenHolder(got.PublicToken), got)
	require.NoError(t, err)
	require.Equal(t, "memory://contracts/"+*got.ContractPath, links.ContractURL)
}

func TestSubmitReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	guest := access.TokenHolder(b.PublicToken)
	rating := 9

	_, err := h.svc.SubmitReview(ctx, guest, b.PublicToken, Review{Text: "Lovely", Rating: &rating})
	require.ErrorIs(t, err, apperr.ErrReviewWindowClosed)

	h.now = day(t, "2026-03-07")
	_, err = h.svc.SubmitReview(ctx, guest, b.PublicToken, Review{Text: "Lovely", Rating: &rating})
	require.ErrorIs(t, err, apperr.ErrReviewWindowClosed, "pending booking")

	_, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusConfirmed)
	require.NoError(t, err)

	_, err = h.svc.SubmitReview(ctx, guest, b.PublicToken, Review{Text: "   ", Rating: &rating})
	require.ErrorIs(t, err, apperr.ErrRequiredFieldsMissing)

	got, err := h.svc.SubmitReview(ctx, guest, b.PublicToken, Review{Text: "Lovely", Rating: &rating})
	require.NoError(t, err)
	require.Equal(t, 5, *got.ReviewRating)
	require.Equal(t, "Ana Silva", *got.ReviewAuthor)

	_, err = h.svc.SubmitReview(ctx, guest, b.PublicToken, Review{Text: "Again"})
	require.ErrorIs(t, err, apperr.ErrReviewWindowClosed)
}

func TestSubmitReview_DefaultAndLowRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.create(t, "2026-03-01", "2026-03-07")
	b := h.create(t, "2026-03-07", "2026-03-13")
	for _, id := range []int64{a.ID, b.ID} {
		_, err := h.svc.SaveStatus(ctx, admin, id, bookings.StatusConfirmed)
		require.NoError(t, err)
	}
	h.now = day(t, "2026-04-01")

	got, err := h.svc.SubmitReview(ctx, access.TokenHolder(a.PublicToken), a.PublicToken, Review{Text: "Great"})
	require.NoError(t, err)
	require.Equal(t, 5, *got.ReviewRating)

	zero := 0
	got, err = h.svc.SubmitReview(ctx, access.TokenHolder(b.PublicToken), b.PublicToken, Review{Text: "Cold", Rating: &zero, Author: "Rui"})
	require.NoError(t, err)
	require.Equal(t, 1, *got.ReviewRating)
	require.Equal(t, "Rui", *got.ReviewAuthor)
}

func TestSaveStatus_CancelNeedsTwoSteps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")

	_, err := h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)
	got, _ := h.svc.Get(ctx, b.ID)
	require.Equal(t, bookings.StatusPending, got.Status)

	// Drafting another status disarms the cancel.
	_, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusPending)
	require.NoError(t, err)
	_, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)

	got, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, bookings.StatusCancelled, got.Status)

	_, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.Status("archived"))
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSaveStatus_LeavingConfirmedClearsLaterGates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	for _, g := range Gates {
		_, _, err := h.svc.SetGate(ctx, admin, b.ID, g, true)
		require.NoError(t, err)
	}

	got, err := h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusPending)
	require.NoError(t, err)
	require.Equal(t, bookings.StatusPending, got.Status)
	require.True(t, got.WhatsappNotified)
	for _, g := range Gates[2:] {
		require.False(t, Done(got, g), g.String())
	}

	// Going back to confirmed does not bring them back.
	got, err = h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusConfirmed)
	require.NoError(t, err)
	require.False(t, got.ContractSent)
}

func TestSaveStatus_ReoccupancyCheck(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.create(t, "2026-03-01", "2026-03-07")

	_, err := h.svc.SaveStatus(ctx, admin, a.ID, bookings.StatusDeclined)
	require.NoError(t, err)
	h.create(t, "2026-03-03", "2026-03-09")

	_, err = h.svc.SaveStatus(ctx, admin, a.ID, bookings.StatusPending)
	require.ErrorIs(t, err, apperr.ErrUnavailableRange)
	got, _ := h.svc.Get(ctx, a.ID)
	require.Equal(t, bookings.StatusDeclined, got.Status)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")
	_, err := h.svc.SaveStatus(ctx, admin, b.ID, bookings.StatusConfirmed)
	require.NoError(t, err)

	_, err = h.svc.Delete(ctx, admin, b.ID, "")
	require.ErrorIs(t, err, apperr.ErrReasonRequired)

	_, err = h.svc.Delete(ctx, admin, b.ID, "double booked")
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)

	_, err = h.svc.Delete(ctx, admin, b.ID, "double booked by phone")
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)

	deleted, err := h.svc.Delete(ctx, admin, b.ID, "double booked by phone")
	require.NoError(t, err)
	require.Equal(t, b.ID, deleted.ID)

	_, err = h.svc.Get(ctx, b.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_PendingNeedsNoReason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2026-03-01", "2026-03-07")

	_, err := h.svc.Delete(ctx, admin, b.ID, "")
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)
	_, err = h.svc.Delete(ctx, admin, b.ID, "")
	require.NoError(t, err)
}

func TestAmendDates_RepricesLikeAFreshQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.rules.rows = []pricingrules.Rule{{ID: 1, StartDate: day(t, "2026-03-05"), EndDate: day(t, "2026-03-31"), NightlyPrice: 110, Active: true}}
	b := h.create(t, "2026-03-01", "2026-03-07")

	// Overlapping its own old range is fine.
	got, err := h.svc.AmendDates(ctx, admin, b.ID, day(t, "2026-03-03"), day(t, "2026-03-10"))
	require.NoError(t, err)

	want := pricing.TotalPrice(day(t, "2026-03-03"), day(t, "2026-03-10"), h.rules.rows, 85, 140)
	require.Equal(t, want, got.TotalPrice)
	require.Equal(t, pricing.DepositAmount(want, 0.30), got.DepositAmount)
	require.Equal(t, day(t, "2026-03-03"), got.CheckIn)
}

func TestAmendDates_RejectsWithoutPartialApply(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.create(t, "2026-03-01", "2026-03-07")
	h.create(t, "2026-03-10", "2026-03-16")

	_, err := h.svc.AmendDates(ctx, admin, a.ID, day(t, "2026-03-05"), day(t, "2026-03-12"))
	require.ErrorIs(t, err, apperr.ErrUnavailableRange)

	_, err = h.svc.AmendDates(ctx, admin, a.ID, day(t, "2026-03-01"), day(t, "2026-03-03"))
	require.ErrorIs(t, err, apperr.ErrMinStayNotMet)

	got, _ := h.svc.Get(ctx, a.ID)
	require.Equal(t, day(t, "2026-03-01"), got.CheckIn)
	require.Equal(t, 650.0, got.TotalPrice)
}

func TestUpdatePaymentNotes(t *testing.T) {
	h := newHarness(t)
	b := h.create(t, "2026-03-01", "2026-03-07")

	got, err := h.svc.UpdatePaymentNotes(context.Background(), admin, b.ID, "IBAN PT50 0000")
	require.NoError(t, err)
	require.Equal(t, "IBAN PT50 0000", got.PaymentNotes)

	_, err = h.svc.UpdatePaymentNotes(context.Background(), access.TokenHolder(b.PublicToken), b.ID, "x")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDossier_TokenLookup(t *testing.T) {
	h := newHarness(t)
	b := h.create(t, "2026-03-01", "2026-03-07")

	got, err := h.svc.Dossier(context.Background(), access.TokenHolder(b.PublicToken), b.PublicToken)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)

	_, err = h.svc.Dossier(context.Background(), access.TokenHolder("nope"), "nope")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
