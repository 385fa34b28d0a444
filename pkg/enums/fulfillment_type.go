package enums

import (
	"fmt"
	"strings"
)

// FulfillmentType selects the delivery or pickup path of an order.
type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
)

var validFulfillmentTypes = []FulfillmentType{
	FulfillmentDelivery,
	FulfillmentPickup,
}

func (f FulfillmentType) String() string {
	return string(f)
}

func (f FulfillmentType) IsValid() bool {
	for _, candidate := range validFulfillmentTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentType converts raw input into a FulfillmentType.
func ParseFulfillmentType(value string) (FulfillmentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validFulfillmentTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment type %q", value)
}
