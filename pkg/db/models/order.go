package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// Order is the durable record of a per-vendor checkout. AmountDue is always
// Subtotal minus CoinsApplied; status transitions after creation are driven by
// the vendor, not this core.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorStoreID   uuid.UUID         `gorm:"column:vendor_store_id;type:uuid;not null"`
	ShopperPhone    string            `gorm:"column:shopper_phone;not null"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null"`
	CustomerAddress string            `gorm:"column:customer_address;not null"`
	Subtotal        int               `gorm:"column:subtotal;not null"`
	CoinsApplied    int               `gorm:"column:coins_applied;not null;default:0"`
	AmountDue       int               `gorm:"column:amount_due;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Reference is the short order identifier embedded in handoff messages.
func (o Order) Reference() string {
	id := o.ID.String()
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
