package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/internal/checkout/helpers"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/loyalty"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/orders"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/metrics"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// idempotencyStore persists sent-vendor markers so replays survive a process
// restart. Lookups and writes are best-effort.
type idempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	IdempotencyKey(scope, id string) string
}

const sentMarkerTTL = 24 * time.Hour

// pinVerifier gates coin spends behind the wallet owner's PIN.
type pinVerifier interface {
	VerifyPin(ctx context.Context, rawPhone, pin string) error
}

type cartRepository interface {
	FindActiveByPhone(ctx context.Context, phone string) (*models.CartRecord, error)
	RemoveVendorItems(ctx context.Context, cartID, vendorStoreID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error
}

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service orchestrates per-vendor checkout submissions.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	VendorStates(ctx context.Context, rawPhone string) (map[uuid.UUID]enums.CheckoutState, error)
}

// SubmitInput is one vendor submission out of a mixed cart. WalletPin must
// verify whenever RedeemCoins is true and the shopper has a wallet; coins never
// move on phone number alone.
type SubmitInput struct {
	ShopperPhone  string                  `json:"shopper_phone" validate:"required"`
	VendorStoreID uuid.UUID               `json:"vendor_store_id" validate:"required"`
	Customer      helpers.CustomerDetails `json:"customer"`
	RedeemCoins   bool                    `json:"redeem_coins"`
	WalletPin     string                  `json:"wallet_pin,omitempty"`
}

// SubmitResult reports the outcome of a vendor submission. Replayed marks a
// repeat click on an already-Sent vendor, which changes nothing.
type SubmitResult struct {
	State        enums.CheckoutState `json:"state"`
	Replayed     bool                `json:"replayed"`
	OrderID      *uuid.UUID          `json:"order_id,omitempty"`
	Subtotal     int                 `json:"subtotal"`
	CoinsApplied int                 `json:"coins_applied"`
	AmountDue    int                 `json:"amount_due"`
	Handoff      *Handoff            `json:"handoff,omitempty"`
}

type service struct {
	carts    cartRepository
	stores   storeFinder
	orders   orders.Repository
	wallets  wallet.Repository
	pins     pinVerifier
	engine   *loyalty.Engine
	runner   txRunner
	idem     idempotencyStore
	registry *sessionRegistry
	metrics  *metrics.CheckoutMetrics
	handoff  config.HandoffConfig
	logg     *logger.Logger
}

// NewService wires the checkout orchestrator.
func NewService(
	carts cartRepository,
	stores storeFinder,
	ordersRepo orders.Repository,
	wallets wallet.Repository,
	pins pinVerifier,
	engine *loyalty.Engine,
	runner txRunner,
	idem idempotencyStore,
	checkoutMetrics *metrics.CheckoutMetrics,
	handoffCfg config.HandoffConfig,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store finder required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if pins == nil {
		return nil, fmt.Errorf("pin verifier required")
	}
	if engine == nil {
		return nil, fmt.Errorf("loyalty engine required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		stores:   stores,
		orders:   ordersRepo,
		wallets:  wallets,
		pins:     pins,
		engine:   engine,
		runner:   runner,
		idem:     idem,
		registry: newSessionRegistry(),
		metrics:  checkoutMetrics,
		handoff:  handoffCfg,
		logg:     logg,
	}, nil
}

// Submit runs one vendor through Submitting and ends at Sent or Failed. Other
// vendors in the cart are untouched either way.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	started := time.Now()

	if err := helpers.ValidateCustomer(input.Customer); err != nil {
		return nil, err
	}
	if input.VendorStoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor store id is required")
	}
	shopperPhone, err := phone.Normalize(input.ShopperPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shopper phone")
	}

	record, err := s.carts.FindActiveByPhone(ctx, shopperPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	group, ok := helpers.FindVendorGroup(record.Items, input.VendorStoreID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items for this vendor")
	}

	store, err := s.stores.FindByID(ctx, input.VendorStoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading vendor")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "vendor is not accepting orders")
	}
	// resolve the messaging target up front so an unreachable vendor fails
	// before any money moves
	if _, err := phone.HandoffAddress(store.ContactPhone, s.handoff.CountryCode); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "vendor contact phone is unusable")
	}

	session := s.registry.forCart(record.ID)
	if session.State(input.VendorStoreID) == enums.CheckoutStateIdle && s.alreadySent(ctx, record.ID, input.VendorStoreID) {
		s.metrics.IncReplayed()
		return &SubmitResult{State: enums.CheckoutStateSent, Replayed: true}, nil
	}
	prior, ok := session.Begin(input.VendorStoreID)
	if !ok {
		if prior == enums.CheckoutStateSent {
			s.metrics.IncReplayed()
			return &SubmitResult{State: enums.CheckoutStateSent, Replayed: true}, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress for this vendor")
	}

	result, err := s.submitVendor(ctx, group, store, shopperPhone, input)
	if err != nil {
		session.Finish(input.VendorStoreID, enums.CheckoutStateFailed)
		s.metrics.IncFailed(failureReason(err))
		s.metrics.ObserveDuration("failed", time.Since(started))
		return nil, err
	}

	session.Finish(input.VendorStoreID, enums.CheckoutStateSent)
	s.metrics.IncSent(result.CoinsApplied > 0)
	s.metrics.ObserveDuration("sent", time.Since(started))

	s.markSent(ctx, record.ID, input.VendorStoreID, result.OrderID)
	s.cleanupVendorLines(ctx, record.ID, input.VendorStoreID)
	return result, nil
}

func (s *service) sentMarkerKey(cartID, vendorStoreID uuid.UUID) string {
	return s.idem.IdempotencyKey("checkout", cartID.String()+":"+vendorStoreID.String())
}

// alreadySent consults the durable replay marker for vendors the in-memory
// session has no record of, e.g. after a restart.
func (s *service) alreadySent(ctx context.Context, cartID, vendorStoreID uuid.UUID) bool {
	if s.idem == nil {
		return false
	}
	marker, err := s.idem.Get(ctx, s.sentMarkerKey(cartID, vendorStoreID))
	return err == nil && marker != ""
}

func (s *service) markSent(ctx context.Context, cartID, vendorStoreID uuid.UUID, orderID *uuid.UUID) {
	if s.idem == nil || orderID == nil {
		return
	}
	if err := s.idem.Set(ctx, s.sentMarkerKey(cartID, vendorStoreID), orderID.String(), sentMarkerTTL); err != nil {
		s.logg.Warn(s.logg.WithVendorID(ctx, vendorStoreID.String()), "recording checkout replay marker failed")
	}
}

func (s *service) submitVendor(
	ctx context.Context,
	group helpers.VendorSubCart,
	store *models.Store,
	shopperPhone string,
	input SubmitInput,
) (*SubmitResult, error) {
	coinsApplied := 0
	var walletID uuid.UUID
	if input.RedeemCoins {
		w, err := s.wallets.FindByPhone(ctx, shopperPhone)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
		}
		if w != nil {
			// only the PIN holder spends; a wallet still awaiting PIN
			// setup is rejected by the verifier
			if err := s.pins.VerifyPin(ctx, shopperPhone, input.WalletPin); err != nil {
				return nil, err
			}
			coinsApplied = s.engine.MaxRedeemable(group.Subtotal, w.Balance)
			walletID = w.ID
		}
	}

	order := buildOrder(group, store.ID, shopperPhone, input.Customer, coinsApplied)

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if coinsApplied > 0 {
			debited, err := s.wallets.WithTx(tx).DebitGuarded(ctx, walletID, coinsApplied)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "debiting wallet")
			}
			if !debited {
				s.metrics.IncSpendConflict()
				return pkgerrors.New(pkgerrors.CodeConflict, "coin balance changed, retry checkout")
			}
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		if coinsApplied > 0 {
			orderID := order.ID
			spend := &models.CoinTransaction{
				ID:          uuid.New(),
				WalletID:    walletID,
				OrderID:     &orderID,
				Kind:        enums.CoinTransactionKindSpend,
				Amount:      coinsApplied,
				Description: fmt.Sprintf("Redeemed on order #%s", order.Reference()),
			}
			if err := s.wallets.WithTx(tx).AppendTransaction(ctx, spend); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending spend transaction")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	handoff, err := BuildHandoff(order, store.ContactPhone, s.handoff.CountryCode)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(s.logg.WithVendorID(ctx, store.ID.String()), order.ID.String())
	s.logg.Info(ctx, "checkout sent")

	orderID := order.ID
	return &SubmitResult{
		State:        enums.CheckoutStateSent,
		OrderID:      &orderID,
		Subtotal:     order.Subtotal,
		CoinsApplied: order.CoinsApplied,
		AmountDue:    order.AmountDue,
		Handoff:      handoff,
	}, nil
}

// cleanupVendorLines removes the sent vendor's lines from the cart. The order
// is already durable, so a cleanup failure only logs.
func (s *service) cleanupVendorLines(ctx context.Context, cartID, vendorStoreID uuid.UUID) {
	if err := s.carts.RemoveVendorItems(ctx, cartID, vendorStoreID); err != nil {
		s.logg.Warn(s.logg.WithVendorID(ctx, vendorStoreID.String()), "removing checked-out cart lines failed")
		return
	}

	remaining, err := s.carts.ListItems(ctx, cartID)
	if err != nil {
		s.logg.Warn(ctx, "listing remaining cart lines failed")
		return
	}
	if len(remaining) == 0 {
		if err := s.carts.UpdateStatus(ctx, cartID, enums.CartStatusConverted); err != nil {
			s.logg.Warn(ctx, "converting emptied cart failed")
			return
		}
		s.registry.drop(cartID)
	}
}

// VendorStates reports the live per-vendor checkout states for the shopper's
// active cart.
func (s *service) VendorStates(ctx context.Context, rawPhone string) (map[uuid.UUID]enums.CheckoutState, error) {
	shopperPhone, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	record, err := s.carts.FindActiveByPhone(ctx, shopperPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[uuid.UUID]enums.CheckoutState{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	session := s.registry.forCart(record.ID)
	states := session.States()
	for _, group := range helpers.GroupByVendor(record.Items) {
		if _, ok := states[group.VendorStoreID]; !ok {
			states[group.VendorStoreID] = enums.CheckoutStateIdle
		}
	}
	return states, nil
}

func buildOrder(group helpers.VendorSubCart, vendorStoreID uuid.UUID, shopperPhone string, customer helpers.CustomerDetails, coinsApplied int) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		VendorStoreID:   vendorStoreID,
		ShopperPhone:    shopperPhone,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		Subtotal:        group.Subtotal,
		CoinsApplied:    coinsApplied,
		AmountDue:       group.Subtotal - coinsApplied,
		Status:          enums.OrderStatusPending,
	}
	for _, item := range group.Items {
		productID := item.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: &productID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return order
}

func failureReason(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil {
		return string(appErr.Code())
	}
	return "internal"
}
