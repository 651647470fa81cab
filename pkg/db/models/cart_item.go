package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem snapshots one product in a cart. Position preserves insertion order
// so vendor grouping stays stable for display.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VendorStoreID uuid.UUID `gorm:"column:vendor_store_id;type:uuid;not null"`
	Name          string    `gorm:"column:name;not null"`
	UnitPrice     int       `gorm:"column:unit_price;not null"`
	ImageURL      *string   `gorm:"column:image_url"`
	Quantity      int       `gorm:"column:quantity;not null"`
	Position      int       `gorm:"column:position;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal is the naira total for this line.
func (i CartItem) LineTotal() int {
	return i.UnitPrice * i.Quantity
}
