// Package dossier drives a booking through its settlement track.
package dossier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"rental/internal/apperr"
	"rental/internal/domain/bookings"
)

// Gate is one step of the settlement track, in track order.
type Gate int

const (
	GateWhatsappNotified Gate = iota + 1
	GateOwnerConfirmed
	GateContractSent
	GateGuestContractSigned
	GateDepositPaid
	GateRemainingPaid
	GateContractSigned
)

var Gates = []Gate{
	GateWhatsappNotified,
	GateOwnerConfirmed,
	GateContractSent,
	GateGuestContractSigned,
	GateDepositPaid,
	GateRemainingPaid,
	GateContractSigned,
}

var gateNames = map[Gate]string{
	GateWhatsappNotified:    "whatsapp_notified",
	GateOwnerConfirmed:      "owner_confirmed",
	GateContractSent:        "contract_sent",
	GateGuestContractSigned: "guest_contract_signed",
	GateDepositPaid:         "deposit_paid",
	GateRemainingPaid:       "remaining_paid",
	GateContractSigned:      "contract_signed",
}

func (g Gate) String() string {
	if n, ok := gateNames[g]; ok {
		return n
	}
	return fmt.Sprintf("gate(%d)", int(g))
}

func ParseGate(s string) (Gate, error) {
	for g, n := range gateNames {
		if n == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown gate %q", apperr.ErrInvalidInput, s)
}

// requires is the precondition edge list. A gate may be marked only when
// every gate it requires is done.
var requires = map[Gate][]Gate{
	GateOwnerConfirmed:      {GateWhatsappNotified},
	GateContractSent:        {GateOwnerConfirmed, GateWhatsappNotified},
	GateGuestContractSigned: {GateContractSent},
	GateDepositPaid:         {GateGuestContractSigned, GateOwnerConfirmed},
	GateRemainingPaid:       {GateDepositPaid, GateGuestContractSigned, GateOwnerConfirmed},
	GateContractSigned:      {GateDepositPaid, GateRemainingPaid, GateGuestContractSigned, GateOwnerConfirmed},
}

// ResetDependentsOf returns, in track order, every gate that directly or
// transitively requires g.
func ResetDependentsOf(g Gate) []Gate {
	seen := map[Gate]bool{}
	queue := []Gate{g}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep, reqs := range requires {
			if seen[dep] {
				continue
			}
			for _, r := range reqs {
				if r == cur {
					seen[dep] = true
					queue = append(queue, dep)
					break
				}
			}
		}
	}

	out := make([]Gate, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Done reports whether g is complete on b. The owner-confirmed gate is the
// booking status itself.
func Done(b *bookings.Booking, g Gate) bool {
	switch g {
	case GateWhatsappNotified:
		return b.WhatsappNotified
	case GateOwnerConfirmed:
		return b.Status == bookings.StatusConfirmed
	case GateContractSent:
		return b.ContractSent
	case GateGuestContractSigned:
		return b.GuestContractSigned
	case GateDepositPaid:
		return b.DepositPaid
	case GateRemainingPaid:
		return b.RemainingPaid
	case GateContractSigned:
		return b.ContractSigned
	}
	return false
}

// Precondition returns GateSequenceViolation naming the missing gates.
func Precondition(b *bookings.Booking, g Gate) error {
	var missing []string
	for _, r := range requires[g] {
		if !Done(b, r) {
			missing = append(missing, r.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", apperr.ErrGateSequenceViolation, g, strings.Join(missing, ", "))
	}
	return nil
}

func set(b *bookings.Booking, g Gate, done bool, at time.Time) {
	var ts *time.Time
	if done {
		t := at
		ts = &t
	}
	switch g {
	case GateWhatsappNotified:
		b.WhatsappNotified, b.WhatsappNotifiedAt = done, ts
	case GateOwnerConfirmed:
		if done {
			b.Status = bookings.StatusConfirmed
		} else if b.Status == bookings.StatusConfirmed {
			b.Status = bookings.StatusPending
		}
	case GateContractSent:
		b.ContractSent, b.ContractSentAt = done, ts
	case GateGuestContractSigned:
		b.GuestContractSigned, b.GuestContractSignedAt = done, ts
		if !done {
			b.GuestSignerName = nil
		} else if b.GuestSignerName == nil {
			name := b.GuestName
			b.GuestSignerName = &name
		}
	case GateDepositPaid:
		b.DepositPaid, b.DepositPaidAt = done, ts
	case GateRemainingPaid:
		b.RemainingPaid, b.RemainingPaidAt = done, ts
	case GateContractSigned:
		b.ContractSigned, b.ContractSignedAt = done, ts
	}
}

// Mark completes g at time at. Marking a done gate is a no-op.
func Mark(b *bookings.Booking, g Gate, at time.Time) error {
	if _, ok := gateNames[g]; !ok {
		return fmt.Errorf("%w: unknown gate %d", apperr.ErrInvalidInput, int(g))
	}
	if Done(b, g) {
		return nil
	}
	if err := Precondition(b, g); err != nil {
		return err
	}
	set(b, g, true, at)
	return nil
}

// Unmark clears g and every gate depending on it. It returns the gates
// that were done and are now cleared.
func Unmark(b *bookings.Booking, g Gate) []Gate {
	var cleared []Gate
	for _, x := range append([]Gate{g}, ResetDependentsOf(g)...) {
		if Done(b, x) {
			cleared = append(cleared, x)
		}
		set(b, x, false, time.Time{})
	}
	return cleared
}

// ResetSignature clears the guest signature and everything after it. Used
// when a new owner contract replaces the one the guest signed.
func ResetSignature(b *bookings.Booking) []Gate {
	cleared := Unmark(b, GateGuestContractSigned)
	b.GuestSignedPath = nil
	return cleared
}
