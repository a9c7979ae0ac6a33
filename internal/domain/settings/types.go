package settings

// Stored keys. Each key maps to exactly one field of Settings.
const (
	KeyBasePrice    = "base_price"
	KeyMaxGuests    = "max_guests"
	KeyCheckInTime  = "check_in_time"
	KeyCheckOutTime = "check_out_time"
	KeyCurrency     = "currency"
)

// Settings is the singleton site configuration. The cleaning fee and the
// minimum stay are not settings; see pricing.Policy.
type Settings struct {
	BasePrice    float64 `json:"base_price" validate:"gt=0"`
	MaxGuests    int     `json:"max_guests" validate:"gte=1,lte=50"`
	CheckInTime  string  `json:"check_in_time" validate:"required,datetime=15:04"`
	CheckOutTime string  `json:"check_out_time" validate:"required,datetime=15:04"`
	Currency     string  `json:"currency" validate:"required,max=8"`
}

// Defaults are used for any key absent from the store.
func Defaults() Settings {
	return Settings{
		BasePrice:    85,
		MaxGuests:    4,
		CheckInTime:  "16:00",
		CheckOutTime: "10:00",
		Currency:     "€",
	}
}
