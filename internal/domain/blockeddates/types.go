package blockeddates

import "time"

// Range is an owner-declared unavailable period. Both ends are inclusive.
type Range struct {
	ID        int64     `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    *string   `json:"reason,omitempty" swaggertype:"string"`
	CreatedAt time.Time `json:"created_at"`
}
