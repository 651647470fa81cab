package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// CartRecord is the persisted cart for one shopper, keyed by the normalized
// phone identity. Items carry immutable product snapshots; live price changes
// never propagate into an existing cart.
type CartRecord struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopperPhone string           `gorm:"column:shopper_phone;not null;uniqueIndex:idx_carts_shopper_active"`
	Status       enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active';uniqueIndex:idx_carts_shopper_active"`
	Items        []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
