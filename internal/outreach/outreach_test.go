package outreach

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"rental/internal/domain/bookings"
	"rental/internal/mailer"

	"github.com/stretchr/testify/require"
)

func fixture() (*Outreach, *bookings.Booking) {
	o := New(Config{
		PropertyName:  "Casa do Mar",
		OwnerWhatsApp: "+351 912 345 678",
		OwnerEmail:    "owner@example.com",
		FrontendURL:   "https://casa.example.com/",
		Currency:      "€",
	}, mailer.NewDrafter("Casa do Mar", "owner@example.com"))

	b := &bookings.Booking{
		ID:            3,
		PublicToken:   "tok-123",
		GuestName:     "Ana Silva",
		GuestEmail:    "ana@example.com",
		GuestPhone:    "+44 7700 900123",
		CheckIn:       time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC),
		Guests:        2,
		TotalPrice:    860,
		DepositAmount: 258,
	}
	return o, b
}

func TestWhatsAppURL(t *testing.T) {
	require.Equal(t, "https://wa.me/351912345678?text=hi+there", WhatsAppURL("+351 912-345-678", "hi there"))
	require.Equal(t, "https://wa.me/", WhatsAppURL("", ""))
}

func TestMailtoURL(t *testing.T) {
	u := MailtoURL("a@b.c", "Hello there", "Line one")
	require.True(t, strings.HasPrefix(u, "mailto:a@b.c?"))
	require.NotContains(t, u, "+")
	require.Contains(t, u, "subject=Hello%20there")
}

func TestDossierURL(t *testing.T) {
	o, _ := fixture()
	require.Equal(t, "https://casa.example.com/dossier/tok-123", o.DossierURL("tok-123"))
}

func TestGuestToOwner(t *testing.T) {
	o, b := fixture()
	links := o.GuestToOwner(b, "AB12CD")

	u, err := url.Parse(links.WhatsApp)
	require.NoError(t, err)
	require.Equal(t, "/351912345678", u.Path)
	require.Contains(t, u.Query().Get("text"), "2026-02-10")
	require.Contains(t, u.Query().Get("text"), "AB12CD")
}

func TestOwnerToGuest_Confirmed(t *testing.T) {
	o, b := fixture()
	links, err := o.OwnerToGuest(b, "AB12CD", KindConfirmed, "")
	require.NoError(t, err)

	u, err := url.Parse(links.WhatsApp)
	require.NoError(t, err)
	text := u.Query().Get("text")
	require.Contains(t, text, "€602.00")
	require.Contains(t, text, "2026-01-10")
	require.Contains(t, text, "https://casa.example.com/dossier/tok-123")

	_, err = o.OwnerToGuest(b, "AB12CD", Kind("nope"), "")
	require.Error(t, err)
}

func TestDraft_WritesEML(t *testing.T) {
	o, b := fixture()
	m, err := o.Draft(b, "AB12CD", KindRemoved, "The house is flooded.")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, mailer.WriteEML(&buf, m))
	eml := buf.String()
	require.Contains(t, eml, "Subject: Casa do Mar: booking AB12CD")
	require.Contains(t, eml, "ana@example.com")
	require.Contains(t, eml, "The house is flooded.")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("review")
	require.NoError(t, err)
	require.Equal(t, KindReview, k)

	_, err = ParseKind("spam")
	require.Error(t, err)
}
