package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// LookupDTO tells the client which wallet flow to start: nothing to show,
// first-time PIN setup, or PIN entry.
type LookupDTO struct {
	Exists   bool `json:"exists"`
	PinSet   bool `json:"pin_set"`
	HasCoins bool `json:"has_coins"`
}

// BalanceDTO is the unlocked wallet summary.
type BalanceDTO struct {
	WalletID uuid.UUID `json:"wallet_id"`
	Balance  int       `json:"balance"`
}

// TransactionDTO is one ledger entry in the unlocked history view.
type TransactionDTO struct {
	ID          uuid.UUID                 `json:"id"`
	OrderID     *uuid.UUID                `json:"order_id,omitempty"`
	Kind        enums.CoinTransactionKind `json:"kind"`
	Amount      int                       `json:"amount"`
	Description string                    `json:"description"`
	CreatedAt   time.Time                 `json:"created_at"`
}

func transactionFromModel(m models.CoinTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
