package types

import (
	"fmt"
	"strings"
)

// Address is a delivery destination captured at checkout and stored as JSON.
type Address struct {
	Line1        string   `json:"line1" validate:"required"`
	Line2        *string  `json:"line2,omitempty"`
	City         string   `json:"city" validate:"required"`
	State        string   `json:"state" validate:"required"`
	PostalCode   string   `json:"postal_code" validate:"required"`
	Country      string   `json:"country,omitempty"`
	Instructions *string  `json:"instructions,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// Normalize trims every field and defaults the country to US.
func (a *Address) Normalize() {
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if a.Country == "" {
		a.Country = "US"
	}
	if a.Line2 != nil {
		trimmed := strings.TrimSpace(*a.Line2)
		if trimmed == "" {
			a.Line2 = nil
		} else {
			a.Line2 = &trimmed
		}
	}
}

// Validate checks the fields required to hand the order to a courier.
func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.Line1) == "":
		return fmt.Errorf("address: missing line1")
	case strings.TrimSpace(a.City) == "":
		return fmt.Errorf("address: missing city")
	case strings.TrimSpace(a.State) == "":
		return fmt.Errorf("address: missing state")
	case strings.TrimSpace(a.PostalCode) == "":
		return fmt.Errorf("address: missing postal_code")
	}
	return nil
}

// PublicArea is the coarse location safe to show without authentication.
type PublicArea struct {
	City  string `json:"city"`
	State string `json:"state"`
}

func (a Address) PublicArea() PublicArea {
	return PublicArea{City: a.City, State: a.State}
}
