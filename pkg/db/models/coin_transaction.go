package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// CoinTransaction is an append-only ledger entry. OrderID keys earn and spend
// entries to the order that produced them, which makes both idempotent per
// order.
type CoinTransaction struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID    uuid.UUID                 `gorm:"column:wallet_id;type:uuid;not null"`
	OrderID     *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	Kind        enums.CoinTransactionKind `gorm:"column:kind;type:coin_transaction_kind;not null"`
	Amount      int                       `gorm:"column:amount;not null"`
	Description string                    `gorm:"column:description;not null"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
