// Package outreach builds the links and message drafts the owner and
// guests follow by hand. It never sends anything.
package outreach

import (
	"fmt"
	"net/url"
	"strings"

	"rental/internal/calendar"
	"rental/internal/domain/bookings"
	"rental/internal/mailer"
	"rental/internal/pricing"

	"gopkg.in/mail.v2"
)

type Config struct {
	PropertyName  string
	OwnerWhatsApp string
	OwnerEmail    string
	FrontendURL   string
	Currency      string
}

type Kind string

const (
	KindReceived  Kind = "received"
	KindConfirmed Kind = "confirmed"
	KindContract  Kind = "contract"
	KindBalance   Kind = "balance"
	KindReview    Kind = "review"
	KindRemoved   Kind = "removed"
)

var templates = map[Kind]string{
	KindReceived:  mailer.BookingReceivedTemplate,
	KindConfirmed: mailer.BookingConfirmedTemplate,
	KindContract:  mailer.ContractReadyTemplate,
	KindBalance:   mailer.BalanceReminderTemplate,
	KindReview:    mailer.ReviewInviteTemplate,
	KindRemoved:   mailer.BookingRemovedTemplate,
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := templates[k]; !ok {
		return "", fmt.Errorf("unknown message kind %q", s)
	}
	return k, nil
}

type Links struct {
	WhatsApp string `json:"whatsapp,omitempty"`
	Mailto   string `json:"mailto,omitempty"`
	Dossier  string `json:"dossier"`
}

type Outreach struct {
	cfg    Config
	mailer mailer.Client
}

func New(cfg Config, m mailer.Client) *Outreach {
	return &Outreach{cfg: cfg, mailer: m}
}

// DossierURL is the guest's private booking page.
func (o *Outreach) DossierURL(token string) string {
	return strings.TrimRight(o.cfg.FrontendURL, "/") + "/dossier/" + url.PathEscape(token)
}

// WhatsAppURL is a wa.me deep link; the phone keeps digits only.
func WhatsAppURL(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	u := "https://wa.me/" + digits.String()
	if text != "" {
		u += "?text=" + url.QueryEscape(text)
	}
	return u
}

func MailtoURL(to, subject, body string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	// mailto wants %20, not +
	return "mailto:" + to + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

// Data is what every template sees.
type Data struct {
	Property     string
	Reference    string
	GuestName    string
	CheckIn      string
	CheckOut     string
	Nights       int
	Guests       int
	Currency     string
	Total        float64
	Deposit      float64
	Remaining    float64
	BalanceDue   string
	PaymentNotes string
	DossierURL   string
	Reason       string
}

func (o *Outreach) data(b *bookings.Booking, ref, reason string) Data {
	return Data{
		Property:     o.cfg.PropertyName,
		Reference:    ref,
		GuestName:    b.GuestName,
		CheckIn:      calendar.Format(b.CheckIn),
		CheckOut:     calendar.Format(b.CheckOut),
		Nights:       calendar.Nights(b.CheckIn, b.CheckOut),
		Guests:       b.Guests,
		Currency:     o.cfg.Currency,
		Total:        b.TotalPrice,
		Deposit:      b.DepositAmount,
		Remaining:    pricing.RemainingAmount(b.TotalPrice, b.DepositAmount),
		BalanceDue:   calendar.Format(pricing.BalanceDueDate(b.CheckIn)),
		PaymentNotes: b.PaymentNotes,
		DossierURL:   o.DossierURL(b.PublicToken),
		Reason:       reason,
	}
}

// GuestToOwner is the WhatsApp link a guest gets after submitting a request,
// prefilled with the booking summary.
func (o *Outreach) GuestToOwner(b *bookings.Booking, ref string) Links {
	text := fmt.Sprintf("Hello! I just requested %s from %s to %s for %d guests. Reference %s.",
		o.cfg.PropertyName, calendar.Format(b.CheckIn), calendar.Format(b.CheckOut), b.Guests, ref)
	return Links{
		WhatsApp: WhatsAppURL(o.cfg.OwnerWhatsApp, text),
		Mailto:   MailtoURL(o.cfg.OwnerEmail, o.cfg.PropertyName+" "+ref, text),
		Dossier:  o.DossierURL(b.PublicToken),
	}
}

// OwnerToGuest renders kind as WhatsApp and mailto links to the guest.
func (o *Outreach) OwnerToGuest(b *bookings.Booking, ref string, kind Kind, reason string) (Links, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return Links{}, fmt.Errorf("unknown message kind %q", kind)
	}
	subject, body, err := mailer.Render(tmpl, o.data(b, ref, reason))
	if err != nil {
		return Links{}, err
	}
	return Links{
		WhatsApp: WhatsAppURL(b.GuestPhone, strings.TrimSpace(body)),
		Mailto:   MailtoURL(b.GuestEmail, subject, body),
		Dossier:  o.DossierURL(b.PublicToken),
	}, nil
}

// Share is what a token holder copies to pass the dossier on.
func (o *Outreach) Share(b *bookings.Booking) Links {
	dossier := o.DossierURL(b.PublicToken)
	text := fmt.Sprintf("Our stay at %s: %s", o.cfg.PropertyName, dossier)
	return Links{
		WhatsApp: WhatsAppURL("", text),
		Mailto:   MailtoURL("", o.cfg.PropertyName, text),
		Dossier:  dossier,
	}
}

// Draft builds an email the owner downloads and sends from their client.
func (o *Outreach) Draft(b *bookings.Booking, ref string, kind Kind, reason string) (*mail.Message, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}
	return o.mailer.Draft(tmpl, b.GuestName, b.GuestEmail, o.data(b, ref, reason))
}
