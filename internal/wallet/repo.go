package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// Repository manages persistence for wallets and their coin ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByPhone(ctx context.Context, phone string) (*models.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	UpdatePinHash(ctx context.Context, id uuid.UUID, hash string) error
	Credit(ctx context.Context, id uuid.UUID, amount int) error
	DebitGuarded(ctx context.Context, id uuid.UUID, amount int) (bool, error)
	AppendTransaction(ctx context.Context, txn *models.CoinTransaction) error
	HasOrderTransaction(ctx context.Context, orderID uuid.UUID, kind enums.CoinTransactionKind) (bool, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.CoinTransaction, error)
	LedgerSum(ctx context.Context, walletID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) UpdatePinHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", id).
		Update("pin_hash", hash).Error
}

func (r *repository) Credit(ctx context.Context, id uuid.UUID, amount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// DebitGuarded decrements the cached balance in a single guarded UPDATE so a
// wallet can never go negative under concurrent spends. Returns false when the
// guard rejected the debit.
func (r *repository) DebitGuarded(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", id, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.CoinTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) HasOrderTransaction(ctx context.Context, orderID uuid.UUID, kind enums.CoinTransactionKind) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CoinTransaction{}).
		Where("order_id = ? AND kind = ?", orderID, kind).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.CoinTransaction, error) {
	var rows []models.CoinTransaction
	if err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LedgerSum recomputes the balance from the transaction history: earns add,
// spends subtract.
func (r *repository) LedgerSum(ctx context.Context, walletID uuid.UUID) (int, error) {
	var sum *int
	if err := r.db.WithContext(ctx).
		Model(&models.CoinTransaction{}).
		Select("SUM(CASE WHEN kind = ? THEN amount ELSE -amount END)", enums.CoinTransactionKindEarn).
		Where("wallet_id = ?", walletID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
