package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow/pkg/enums"
)

// OrderStatusEvent is an append-only history row for each applied status change.
type OrderStatusEvent struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ActorID    string             `gorm:"column:actor_id;type:text;not null"`
	ActorRole  enums.ActorRole    `gorm:"column:actor_role;type:text;not null"`
	DriverID   *string            `gorm:"column:driver_id;type:text"`
	OccurredAt time.Time          `gorm:"column:occurred_at;not null"`
}
