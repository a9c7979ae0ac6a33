package dossier

import (
	"fmt"
	"sync"
	"time"

	"rental/internal/apperr"
)

// Destructive is an action that needs a second, identical request.
type Destructive string

const (
	DestructiveCancel Destructive = "cancel"
	DestructiveDelete Destructive = "delete"
)

type armKey struct {
	identity string
	action   Destructive
	id       int64
}

type armed struct {
	fingerprint string
	expires     time.Time
}

// Confirmations holds armed destructive actions per caller. Nothing here is
// persisted; an arm lapses after ttl or when the caller changes the
// targeted input.
type Confirmations struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	armed map[armKey]armed
}

func NewConfirmations(ttl time.Duration) *Confirmations {
	return &Confirmations{ttl: ttl, now: time.Now, armed: map[armKey]armed{}}
}

// Confirm consumes a live arm for the same caller, action, booking and
// fingerprint and returns nil. Otherwise it arms (or re-arms with the new
// fingerprint) and returns ConfirmationRequired.
func (c *Confirmations) Confirm(identity string, action Destructive, id int64, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	k := armKey{identity: identity, action: action, id: id}
	if a, ok := c.armed[k]; ok && a.fingerprint == fingerprint {
		delete(c.armed, k)
		return nil
	}
	c.armed[k] = armed{fingerprint: fingerprint, expires: now.Add(c.ttl)}
	return fmt.Errorf("%w: repeat the request to %s booking %d", apperr.ErrConfirmationRequired, action, id)
}

// Disarm drops a pending arm, e.g. when the draft status moves away from
// cancelled.
func (c *Confirmations) Disarm(identity string, action Destructive, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.armed, armKey{identity: identity, action: action, id: id})
}

// Armed reports whether a live arm exists.
func (c *Confirmations) Armed(identity string, action Destructive, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.armed[armKey{identity: identity, action: action, id: id}]
	return ok && c.now().Before(a.expires)
}

func (c *Confirmations) sweep(now time.Time) {
	for k, a := range c.armed {
		if !now.Before(a.expires) {
			delete(c.armed, k)
		}
	}
}
