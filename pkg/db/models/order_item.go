package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the immutable snapshot of one line at order time.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	UnitPrice int        `gorm:"column:unit_price;not null"`
	Quantity  int        `gorm:"column:quantity;not null"`
	LineTotal int        `gorm:"column:line_total;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
