// Package access decides what a dossier caller may see and do.
package access

import (
	"crypto/subtle"
	"fmt"
	"time"

	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/bookings"
)

// Caller is whoever is looking at a dossier: an authenticated admin or an
// anonymous holder of the booking's public token.
type Caller struct {
	IsAdmin  bool
	Identity string
	Token    string
}

func Admin(identity string) Caller {
	return Caller{IsAdmin: true, Identity: identity}
}

func TokenHolder(token string) Caller {
	return Caller{Identity: "token:" + token, Token: token}
}

type Action string

const (
	ActionViewDossier          Action = "view_dossier"
	ActionUploadSignedContract Action = "upload_signed_contract"
	ActionSubmitReview         Action = "submit_review"
	ActionShareLink            Action = "share_link"

	ActionChangeStatus     Action = "change_status"
	ActionEditDates        Action = "edit_dates"
	ActionUploadContract   Action = "upload_contract"
	ActionEditPaymentNotes Action = "edit_payment_notes"
	ActionToggleGate       Action = "toggle_gate"
	ActionDelete           Action = "delete"
	ActionViewFiles        Action = "view_files"
)

var tokenHolderActions = map[Action]bool{
	ActionViewDossier:          true,
	ActionUploadSignedContract: true,
	ActionSubmitReview:         true,
	ActionShareLink:            true,
}

// HoldsToken compares in constant time.
func (c Caller) HoldsToken(b *bookings.Booking) bool {
	if c.Token == "" || b == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Token), []byte(b.PublicToken)) == 1
}

// Allowed is a pure predicate; it never loads data.
func Allowed(c Caller, a Action, b *bookings.Booking) bool {
	if c.IsAdmin {
		return true
	}
	return tokenHolderActions[a] && c.HoldsToken(b)
}

// Authorize is Allowed as an error.
func Authorize(c Caller, a Action, b *bookings.Booking) error {
	if Allowed(c, a, b) {
		return nil
	}
	return fmt.Errorf("%w: %s", apperr.ErrForbidden, a)
}

// ReviewWindow is open once a confirmed stay has ended and no review exists.
func ReviewWindow(b *bookings.Booking, today time.Time) error {
	switch {
	case b.Status != bookings.StatusConfirmed:
		return fmt.Errorf("%w: booking is %s", apperr.ErrReviewWindowClosed, b.Status)
	case calendar.Day(today).Before(calendar.Day(b.CheckOut)):
		return fmt.Errorf("%w: stay has not ended", apperr.ErrReviewWindowClosed)
	case b.ReviewRating != nil:
		return fmt.Errorf("%w: already reviewed", apperr.ErrReviewWindowClosed)
	}
	return nil
}

// Capabilities tells the dossier page which controls to enable.
type Capabilities struct {
	UploadSignedContract bool `json:"upload_signed_contract"`
	SubmitReview         bool `json:"submit_review"`
	Share                bool `json:"share"`
	ChangeStatus         bool `json:"change_status"`
	EditDates            bool `json:"edit_dates"`
	UploadContract       bool `json:"upload_contract"`
	EditPaymentNotes     bool `json:"edit_payment_notes"`
	ToggleGates          bool `json:"toggle_gates"`
	Delete               bool `json:"delete"`
}

func CapabilitiesFor(c Caller, b *bookings.Booking, today time.Time) Capabilities {
	return Capabilities{
		UploadSignedContract: Allowed(c, ActionUploadSignedContract, b) && b.ContractSent,
		SubmitReview:         Allowed(c, ActionSubmitReview, b) && ReviewWindow(b, today) == nil,
		Share:                Allowed(c, ActionShareLink, b),
		ChangeStatus:         Allowed(c, ActionChangeStatus, b),
		EditDates:            Allowed(c, ActionEditDates, b),
		UploadContract:       Allowed(c, ActionUploadContract, b),
		EditPaymentNotes:     Allowed(c, ActionEditPaymentNotes, b),
		ToggleGates:          Allowed(c, ActionToggleGate, b),
		Delete:               Allowed(c, ActionDelete, b),
	}
}
