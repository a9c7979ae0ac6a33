package access

import (
	"time"

	"rental/internal/calendar"
	"rental/internal/domain/bookings"
	"rental/internal/pricing"
)

// Links are resolved by the caller; empty values are omitted.
type Links struct {
	ContractURL    string
	GuestSignedURL string
	DossierURL     string
	Reference      string
}

type GateView struct {
	Done bool       `json:"done"`
	At   *time.Time `json:"at,omitempty"`
}

type ReviewView struct {
	Author      *string    `json:"author,omitempty"`
	Rating      int        `json:"rating"`
	Text        *string    `json:"text,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// View is a booking as rendered for one caller.
type View struct {
	ID             int64               `json:"id,omitempty"`
	Reference      string              `json:"reference"`
	Status         bookings.Status     `json:"status"`
	GuestName      string              `json:"guest_name"`
	GuestEmail     string              `json:"guest_email,omitempty"`
	GuestPhone     string              `json:"guest_phone,omitempty"`
	CheckIn        string              `json:"check_in"`
	CheckOut       string              `json:"check_out"`
	Nights         int                 `json:"nights"`
	Guests         int                 `json:"guests"`
	Language       string              `json:"language"`
	Message        *string             `json:"message,omitempty"`
	TotalPrice     float64             `json:"total_price"`
	CleaningFee    float64             `json:"cleaning_fee"`
	DepositAmount  float64             `json:"deposit_amount"`
	Remaining      float64             `json:"remaining_amount"`
	BalanceDueDate string              `json:"balance_due_date"`
	PaymentNotes   string              `json:"payment_notes"`
	Gates          map[string]GateView `json:"gates"`
	SignerName     *string             `json:"guest_signer_name,omitempty"`
	ContractURL    string              `json:"contract_url,omitempty"`
	GuestSignedURL string              `json:"guest_signed_url,omitempty"`
	DossierURL     string              `json:"dossier_url,omitempty"`
	Review         *ReviewView         `json:"review,omitempty"`
	Capabilities   Capabilities        `json:"capabilities"`
	CreatedAt      time.Time           `json:"created_at"`
}

// BuildView renders b for c. Token holders do not see the internal id or
// the guest-signed file URL; admins see everything.
func BuildView(c Caller, b *bookings.Booking, today time.Time, links Links) View {
	v := View{
		Reference:      links.Reference,
		Status:         b.Status,
		GuestName:      b.GuestName,
		GuestEmail:     b.GuestEmail,
		GuestPhone:     b.GuestPhone,
		CheckIn:        calendar.Format(b.CheckIn),
		CheckOut:       calendar.Format(b.CheckOut),
		Nights:         calendar.Nights(b.CheckIn, b.CheckOut),
		Guests:         b.Guests,
		Language:       b.Language,
		Message:        b.Message,
		TotalPrice:     b.TotalPrice,
		CleaningFee:    b.CleaningFee,
		DepositAmount:  b.DepositAmount,
		Remaining:      pricing.RemainingAmount(b.TotalPrice, b.DepositAmount),
		BalanceDueDate: calendar.Format(pricing.BalanceDueDate(b.CheckIn)),
		PaymentNotes:   b.PaymentNotes,
		SignerName:     b.GuestSignerName,
		ContractURL:    links.ContractURL,
		DossierURL:     links.DossierURL,
		Capabilities:   CapabilitiesFor(c, b, today),
		CreatedAt:      b.CreatedAt,
		Gates: map[string]GateView{
			"whatsapp_notified":     {Done: b.WhatsappNotified, At: b.WhatsappNotifiedAt},
			"owner_confirmed":       {Done: b.Status == bookings.StatusConfirmed},
			"contract_sent":         {Done: b.ContractSent, At: b.ContractSentAt},
			"guest_contract_signed": {Done: b.GuestContractSigned, At: b.GuestContractSignedAt},
			"deposit_paid":          {Done: b.DepositPaid, At: b.DepositPaidAt},
			"remaining_paid":        {Done: b.RemainingPaid, At: b.RemainingPaidAt},
			"contract_signed":       {Done: b.ContractSigned, At: b.ContractSignedAt},
		},
	}
	if b.ReviewRating != nil {
		v.Review = &ReviewView{
			Author:      b.ReviewAuthor,
			Rating:      *b.ReviewRating,
			Text:        b.ReviewText,
			SubmittedAt: b.ReviewSubmittedAt,
		}
	}
	if c.IsAdmin {
		v.ID = b.ID
		v.GuestSignedURL = links.GuestSignedURL
	}
	return v
}
