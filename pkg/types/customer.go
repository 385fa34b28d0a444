package types

// CustomerSnapshot is the customer contact captured when the order is paid.
// It is never exposed through the public tracking view.
type CustomerSnapshot struct {
	Name  string  `json:"name"`
	Email string  `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}
