package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a priced line captured at checkout. Never recomputed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID string          `gorm:"column:product_id;type:text;not null"`
	Name      string          `gorm:"column:name;type:text;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Position  int             `gorm:"column:position;not null;default:0"`
}
