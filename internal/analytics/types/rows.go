package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. One row is written
// per order lifecycle event.
type OrderEventRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	OrderID         string             `bigquery:"order_id"`
	OrderCode       *string            `bigquery:"order_code"`
	CustomerID      *string            `bigquery:"customer_id"`
	VendorID        *string            `bigquery:"vendor_id"`
	DriverID        *string            `bigquery:"driver_id"`
	FromStatus      *string            `bigquery:"from_status"`
	ToStatus        string             `bigquery:"to_status"`
	FulfillmentType *string            `bigquery:"fulfillment_type"`
	Currency        *string            `bigquery:"currency"`
	TotalCents      *int64             `bigquery:"total_cents"`
	ItemCount       *int64             `bigquery:"item_count"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}
