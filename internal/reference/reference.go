// Package reference turns booking ids into short codes guests can quote on
// a bank transfer or in a message.
package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	alphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	minLength = 6
)

type Encoder struct {
	h *hashids.HashID
}

func New(salt string) (*Encoder, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.Alphabet = alphabet
	hd.MinLength = minLength

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &Encoder{h: h}, nil
}

// Encode returns the reference for a booking id.
func (e *Encoder) Encode(id int64) string {
	s, err := e.h.EncodeInt64([]int64{id})
	if err != nil {
		// only negative ids fail
		return ""
	}
	return s
}

// Decode accepts a reference in any case.
func (e *Encoder) Decode(ref string) (int64, error) {
	ids, err := e.h.DecodeInt64WithError(strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return 0, fmt.Errorf("invalid reference: %w", err)
	}
	if len(ids) != 1 {
		return 0, errors.New("invalid reference")
	}
	return ids[0], nil
}
