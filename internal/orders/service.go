package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/internal/loyalty"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/pagination"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes vendor order lifecycle operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByVendor(ctx context.Context, vendorStoreID uuid.UUID, params pagination.Params) (*VendorOrdersPage, error)
	ListByShopper(ctx context.Context, shopperPhone string) ([]models.Order, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    Repository
	stores  storeFinder
	engine  *loyalty.Engine
	wallets wallet.Service
	logg    *logger.Logger
}

// NewService wires the order lifecycle service.
func NewService(repo Repository, stores storeFinder, engine *loyalty.Engine, wallets wallet.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store finder required")
	}
	if engine == nil {
		return nil, fmt.Errorf("loyalty engine required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, stores: stores, engine: engine, wallets: wallets, logg: logg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// VendorOrdersPage is one page of a vendor's order history.
type VendorOrdersPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func (s *service) ListByVendor(ctx context.Context, vendorStoreID uuid.UUID, params pagination.Params) (*VendorOrdersPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByVendor(ctx, vendorStoreID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	page := &VendorOrdersPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) ListByShopper(ctx context.Context, rawPhone string) ([]models.Order, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}
	rows, err := s.repo.ListByShopper(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

// Complete marks an order fulfilled and awards coins on the amount the vendor
// actually collected. Repeating the call is a no-op; the award is keyed to the
// order so it can never double-credit.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusCompleted:
		// re-run the award so a completion whose credit failed can heal;
		// the per-order ledger key makes this a no-op once it has landed
		s.awardCoins(ctx, order)
		return order, nil
	case enums.OrderStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be completed")
	}

	if err := s.repo.UpdateStatus(ctx, id, enums.OrderStatusCompleted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = enums.OrderStatusCompleted

	s.awardCoins(ctx, order)
	return order, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusCancelled:
		return order, nil
	case enums.OrderStatusCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, enums.OrderStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = enums.OrderStatusCancelled
	return order, nil
}

// awardCoins is best-effort: the completion stands even when the award fails,
// and a retry of Complete will re-attempt it safely.
func (s *service) awardCoins(ctx context.Context, order *models.Order) {
	store, err := s.stores.FindByID(ctx, order.VendorStoreID)
	if err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "loading vendor for coin award failed")
		return
	}

	award := s.engine.EarnPreview(order.AmountDue, store.LoyaltyPercent, store.LoyaltyEnabled)
	if award == 0 {
		return
	}

	err = s.wallets.RecordEarn(ctx, wallet.RecordEarnInput{
		Phone:       order.ShopperPhone,
		OrderID:     order.ID,
		Amount:      award,
		Description: fmt.Sprintf("Reward from %s", store.Name),
	})
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "recording coin award failed", err)
	}
}
