package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// Repository exposes persistence operations for shopper carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOrCreateActiveByPhone loads the shopper's active cart, creating an empty
// one on first use. One active cart exists per normalized phone.
func (r *Repository) FindOrCreateActiveByPhone(ctx context.Context, phone string) (*models.CartRecord, error) {
	record, err := r.FindActiveByPhone(ctx, phone)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = &models.CartRecord{
		ID:           uuid.New(),
		ShopperPhone: phone,
		Status:       enums.CartStatusActive,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindActiveByPhone loads the shopper's active cart with its items in
// insertion order.
func (r *Repository) FindActiveByPhone(ctx context.Context, phone string) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("shopper_phone = ? AND status = ?", phone, enums.CartStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ReplaceItems atomically replaces cart items for the provided cart.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return tx.Create(&items).Error
}

// RemoveVendorItems drops one vendor's lines after a successful checkout,
// leaving the rest of the cart untouched.
func (r *Repository) RemoveVendorItems(ctx context.Context, cartID, vendorStoreID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND vendor_store_id = ?", cartID, vendorStoreID).
		Delete(&models.CartItem{}).Error
}

// ListItems returns items belonging to a cart in insertion order.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a cart between active and converted.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", id).
		Update("status", status).Error
}
