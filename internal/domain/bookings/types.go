package bookings

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four booking statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// HoldsDates is true for statuses that occupy the calendar.
func (s Status) HoldsDates() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a guest reservation. CheckOut is exclusive: the stay covers
// the nights [CheckIn, CheckOut).
type Booking struct {
	ID          int64     `json:"id"`
	PublicToken string    `json:"public_token"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	GuestPhone  string    `json:"guest_phone"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Guests      int       `json:"guests"`
	Message     *string   `json:"message,omitempty" swaggertype:"string"`
	Language    string    `json:"language"`
	Status      Status    `json:"status"`

	TotalPrice    float64 `json:"total_price"`
	CleaningFee   float64 `json:"cleaning_fee"`
	DepositAmount float64 `json:"deposit_amount"`
	PaymentNotes  string  `json:"payment_notes"`

	WhatsappNotified      bool       `json:"whatsapp_notified"`
	WhatsappNotifiedAt    *time.Time `json:"whatsapp_notified_at,omitempty"`
	ContractSent          bool       `json:"contract_sent"`
	ContractSentAt        *time.Time `json:"contract_sent_at,omitempty"`
	GuestContractSigned   bool       `json:"guest_contract_signed"`
	GuestContractSignedAt *time.Time `json:"guest_contract_signed_at,omitempty"`
	GuestSignerName       *string    `json:"guest_signer_name,omitempty" swaggertype:"string"`
	DepositPaid           bool       `json:"deposit_paid"`
	DepositPaidAt         *time.Time `json:"deposit_paid_at,omitempty"`
	RemainingPaid         bool       `json:"remaining_paid"`
	RemainingPaidAt       *time.Time `json:"remaining_paid_at,omitempty"`
	ContractSigned        bool       `json:"contract_signed"`
	ContractSignedAt      *time.Time `json:"contract_signed_at,omitempty"`

	ContractPath    *string `json:"contract_path,omitempty" swaggertype:"string"`
	GuestSignedPath *string `json:"guest_signed_path,omitempty" swaggertype:"string"`

	ReviewAuthor      *string    `json:"review_author,omitempty" swaggertype:"string"`
	ReviewRating      *int       `json:"review_rating,omitempty" swaggertype:"integer"`
	ReviewText        *string    `json:"review_text,omitempty" swaggertype:"string"`
	ReviewSubmittedAt *time.Time `json:"review_submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows admin listings.
type Filter struct {
	Status *Status // nil = no filtering
	Limit  int
	Offset int
}
