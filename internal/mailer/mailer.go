package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"text/template"

	"gopkg.in/mail.v2"
)

const (
	BookingReceivedTemplate  = "booking_received.tmpl"
	BookingConfirmedTemplate = "booking_confirmed.tmpl"
	ContractReadyTemplate    = "contract_ready.tmpl"
	BalanceReminderTemplate  = "balance_reminder.tmpl"
	ReviewInviteTemplate     = "review_invite.tmpl"
	BookingRemovedTemplate   = "booking_removed.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client renders a template into a message the owner sends by hand. Nothing
// is delivered from the server.
type Client interface {
	Draft(templateFile, toName, toEmail string, data any) (*mail.Message, error)
}

type Drafter struct {
	fromName  string
	fromEmail string
}

func NewDrafter(fromName, fromEmail string) *Drafter {
	return &Drafter{fromName: fromName, fromEmail: fromEmail}
}

// Render executes the subject and body blocks of a template.
func Render(templateFile string, data any) (subject, body string, err error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	var s, b bytes.Buffer
	if err := tmpl.ExecuteTemplate(&s, "subject", data); err != nil {
		return "", "", err
	}
	if err := tmpl.ExecuteTemplate(&b, "body", data); err != nil {
		return "", "", err
	}
	return s.String(), b.String(), nil
}

func (d *Drafter) Draft(templateFile, toName, toEmail string, data any) (*mail.Message, error) {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", templateFile, err)
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", d.fromEmail, d.fromName)
	m.SetAddressHeader("To", toEmail, toName)
	m.SetHeader("Subject", subject)
	m.SetHeader("X-Unsent", "1")
	m.SetBody("text/plain", body)
	return m, nil
}

// WriteEML writes m as an RFC 5322 file.
func WriteEML(w io.Writer, m *mail.Message) error {
	_, err := m.WriteTo(w)
	return err
}
