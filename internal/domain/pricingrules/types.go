package pricingrules

import "time"

// Rule overrides the nightly base price between StartDate and EndDate
// (both inclusive) while Active.
type Rule struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	NightlyPrice float64   `json:"nightly_price"`
	MinStay      *int      `json:"min_stay,omitempty" swaggertype:"integer"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
