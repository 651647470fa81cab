package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a shopper's coin balance. Identity is the normalized phone
// number; the wallet is created lazily on the first earn event. Balance is a
// cache of the transaction running sum and must never drift from it.
type Wallet struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     string    `gorm:"column:phone;not null;uniqueIndex:idx_wallets_phone"`
	PinHash   *string   `gorm:"column:pin_hash"`
	Balance   int       `gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasPin reports whether the owner has completed one-time PIN setup.
func (w Wallet) HasPin() bool {
	return w.PinHash != nil && *w.PinHash != ""
}
