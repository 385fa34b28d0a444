package stripewebhook

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/orderflow/internal/orders"
	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/types"
)

// Metadata keys written by the checkout flow onto the session.
const (
	metaCustomerID      = "customer_id"
	metaCustomerName    = "customer_name"
	metaCustomerEmail   = "customer_email"
	metaCustomerPhone   = "customer_phone"
	metaVendorID        = "vendor_id"
	metaVendorName      = "vendor_name"
	metaVendorPhone     = "vendor_phone"
	metaCurrency        = "currency"
	metaItems           = "items"
	metaSubtotal        = "subtotal"
	metaDeliveryFee     = "delivery_fee"
	metaServiceFee      = "service_fee"
	metaTax             = "tax"
	metaTotal           = "total"
	metaFulfillmentType = "fulfillment_type"
	metaDeliveryAddress = "delivery_address"
	metaTrackingPin     = "tracking_pin"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("meta"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// sessionMetadata is the typed shape of the checkout session metadata.
type sessionMetadata struct {
	CustomerID      string          `meta:"customer_id" validate:"required"`
	CustomerName    string          `meta:"customer_name" validate:"required"`
	CustomerEmail   string          `meta:"customer_email" validate:"omitempty,email"`
	CustomerPhone   string          `meta:"customer_phone"`
	VendorID        string          `meta:"vendor_id" validate:"required"`
	VendorName      string          `meta:"vendor_name" validate:"required"`
	VendorPhone     string          `meta:"vendor_phone"`
	Currency        string          `meta:"currency" validate:"omitempty,len=3"`
	Items           []metadataItem  `meta:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal `meta:"subtotal"`
	DeliveryFee     decimal.Decimal `meta:"delivery_fee"`
	ServiceFee      decimal.Decimal `meta:"service_fee"`
	Tax             decimal.Decimal `meta:"tax"`
	Total           decimal.Decimal `meta:"total"`
	FulfillmentType string          `meta:"fulfillment_type" validate:"required,oneof=delivery pickup"`
	DeliveryAddress *types.Address  `meta:"delivery_address" validate:"required_if=FulfillmentType delivery"`
	TrackingPin     string          `meta:"tracking_pin" validate:"omitempty,len=6,numeric"`
}

type metadataItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
}

// MalformedMetadataError marks metadata that can never produce an order.
type MalformedMetadataError struct {
	Reason string
}

func (e *MalformedMetadataError) Error() string {
	return "malformed session metadata: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedMetadataError{Reason: fmt.Sprintf(format, args...)}
}

// parseMetadata decodes and validates the raw key/value metadata. Amounts are
// required decimal strings; items and address are JSON documents.
func parseMetadata(raw map[string]string) (*sessionMetadata, error) {
	if len(raw) == 0 {
		return nil, malformed("metadata missing")
	}
	get := func(key string) string { return strings.TrimSpace(raw[key]) }

	meta := &sessionMetadata{
		CustomerID:      get(metaCustomerID),
		CustomerName:    get(metaCustomerName),
		CustomerEmail:   get(metaCustomerEmail),
		CustomerPhone:   get(metaCustomerPhone),
		VendorID:        get(metaVendorID),
		VendorName:      get(metaVendorName),
		VendorPhone:     get(metaVendorPhone),
		Currency:        strings.ToUpper(get(metaCurrency)),
		FulfillmentType: strings.ToLower(get(metaFulfillmentType)),
		TrackingPin:     get(metaTrackingPin),
	}

	if rawItems := get(metaItems); rawItems != "" {
		if err := json.Unmarshal([]byte(rawItems), &meta.Items); err != nil {
			return nil, malformed("items: %v", err)
		}
	}
	if rawAddress := get(metaDeliveryAddress); rawAddress != "" {
		var addr types.Address
		if err := json.Unmarshal([]byte(rawAddress), &addr); err != nil {
			return nil, malformed("delivery_address: %v", err)
		}
		meta.DeliveryAddress = &addr
	}

	amounts := []struct {
		key  string
		dest *decimal.Decimal
	}{
		{metaSubtotal, &meta.Subtotal},
		{metaDeliveryFee, &meta.DeliveryFee},
		{metaServiceFee, &meta.ServiceFee},
		{metaTax, &meta.Tax},
		{metaTotal, &meta.Total},
	}
	for _, amount := range amounts {
		value := get(amount.key)
		if value == "" {
			return nil, malformed("%s missing", amount.key)
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, malformed("%s: %v", amount.key, err)
		}
		*amount.dest = parsed
	}

	if err := validate.Struct(meta); err != nil {
		return nil, malformed("%s", describeValidation(err))
	}
	return meta, nil
}

func describeValidation(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return strings.Join(parts, "; ")
}

// createInput maps a paid session and its metadata onto an order request.
func createInput(session *stripe.CheckoutSession, meta *sessionMetadata) orders.CreateOrderInput {
	items := make([]orders.ItemInput, len(meta.Items))
	for i, item := range meta.Items {
		items[i] = orders.ItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	input := orders.CreateOrderInput{
		SessionID:  session.ID,
		CustomerID: meta.CustomerID,
		VendorID:   meta.VendorID,
		VendorName: meta.VendorName,
		Customer: types.CustomerSnapshot{
			Name:  meta.CustomerName,
			Email: meta.CustomerEmail,
			Phone: optional(meta.CustomerPhone),
		},
		VendorPhone:     optional(meta.VendorPhone),
		Currency:        enums.Currency(meta.Currency),
		Items:           items,
		Subtotal:        meta.Subtotal,
		DeliveryFee:     meta.DeliveryFee,
		ServiceFee:      meta.ServiceFee,
		Tax:             meta.Tax,
		Total:           meta.Total,
		FulfillmentType: enums.FulfillmentType(meta.FulfillmentType),
		DeliveryAddress: meta.DeliveryAddress,
		TrackingPin:     meta.TrackingPin,
	}
	if input.Currency == "" && session.Currency != "" {
		input.Currency = enums.Currency(strings.ToUpper(string(session.Currency)))
	}
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		input.PaymentIntentID = optional(session.PaymentIntent.ID)
	}
	return input
}

// checkAmountTotal compares the metadata total with the amount Stripe charged.
// Sessions that report no amount are not checked.
func checkAmountTotal(session *stripe.CheckoutSession, total decimal.Decimal) error {
	if session.AmountTotal <= 0 {
		return nil
	}
	charged := decimal.New(session.AmountTotal, -2)
	if !charged.Equal(total) {
		return malformed("total %s does not match charged amount %s", total.StringFixed(2), strconv.FormatInt(session.AmountTotal, 10)+" cents")
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
