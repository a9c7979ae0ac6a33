package messages

import "time"

// Message is a contact-form submission from the marketing site.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty" swaggertype:"string"`
	Subject   *string   `json:"subject,omitempty" swaggertype:"string"`
	Body      string    `json:"body"`
	Language  string    `json:"language"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
