package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/pagination"
)

type stubCartRepo struct {
	record     *models.CartRecord
	failRemove error
	converted  []uuid.UUID
}

func (s *stubCartRepo) FindActiveByPhone(_ context.Context, _ string) (*models.CartRecord, error) {
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

func (s *stubCartRepo) RemoveVendorItems(_ context.Context, _, vendorStoreID uuid.UUID) error {
	if s.failRemove != nil {
		return s.failRemove
	}
	kept := s.record.Items[:0]
	for _, item := range s.record.Items {
		if item.VendorStoreID != vendorStoreID {
			kept = append(kept, item)
		}
	}
	s.record.Items = kept
	return nil
}

func (s *stubCartRepo) ListItems(_ context.Context, _ uuid.UUID) ([]models.CartItem, error) {
	return s.record.Items, nil
}

func (s *stubCartRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.CartStatus) error {
	if status == enums.CartStatusConverted {
		s.converted = append(s.converted, id)
	}
	return nil
}

type stubStoreFinder struct {
	stores map[uuid.UUID]*models.Store
}

func (s *stubStoreFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

type stubOrderRepo struct {
	created []*models.Order
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByVendor(_ context.Context, _ uuid.UUID, _ int, _ *pagination.Cursor) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListByShopper(_ context.Context, _ string) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ enums.OrderStatus) error {
	return nil
}

type checkoutWalletStub struct {
	wallet    *models.Wallet
	txns      []*models.CoinTransaction
	failDebit bool
}

func (s *checkoutWalletStub) WithTx(_ *gorm.DB) wallet.Repository { return s }

func (s *checkoutWalletStub) Create(_ context.Context, w *models.Wallet) error {
	s.wallet = w
	return nil
}

func (s *checkoutWalletStub) FindByPhone(_ context.Context, _ string) (*models.Wallet, error) {
	if s.wallet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.wallet, nil
}

func (s *checkoutWalletStub) FindByID(_ context.Context, _ uuid.UUID) (*models.Wallet, error) {
	if s.wallet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.wallet, nil
}

func (s *checkoutWalletStub) UpdatePinHash(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (s *checkoutWalletStub) Credit(_ context.Context, _ uuid.UUID, amount int) error {
	s.wallet.Balance += amount
	return nil
}

func (s *checkoutWalletStub) DebitGuarded(_ context.Context, _ uuid.UUID, amount int) (bool, error) {
	if s.failDebit || s.wallet == nil || s.wallet.Balance < amount {
		return false, nil
	}
	s.wallet.Balance -= amount
	return true, nil
}

func (s *checkoutWalletStub) AppendTransaction(_ context.Context, txn *models.CoinTransaction) error {
	s.txns = append(s.txns, txn)
	return nil
}

func (s *checkoutWalletStub) HasOrderTransaction(_ context.Context, _ uuid.UUID, _ enums.CoinTransactionKind) (bool, error) {
	return false, nil
}

func (s *checkoutWalletStub) ListTransactions(_ context.Context, _ uuid.UUID) ([]models.CoinTransaction, error) {
	return nil, nil
}

func (s *checkoutWalletStub) LedgerSum(_ context.Context, _ uuid.UUID) (int, error) {
	return 0, nil
}

type passthroughRunner struct{}

func (passthroughRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubIdemStore struct {
	entries map[string]string
}

func newStubIdemStore() *stubIdemStore {
	return &stubIdemStore{entries: map[string]string{}}
}

func (s *stubIdemStore) Get(_ context.Context, key string) (string, error) {
	return s.entries[key], nil
}

func (s *stubIdemStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.entries[key] = fmt.Sprint(value)
	return nil
}

func (s *stubIdemStore) IdempotencyKey(scope, id string) string {
	return "km:idem:" + scope + ":" + id
}

type stubPinVerifier struct {
	err   error
	calls int
}

func (s *stubPinVerifier) VerifyPin(_ context.Context, _, _ string) error {
	s.calls++
	return s.err
}

type checkoutFixture struct {
	service Service
	carts   *stubCartRepo
	orders  *stubOrderRepo
	wallets *checkoutWalletStub
	pins    *stubPinVerifier
	idem    *stubIdemStore
	stores  *stubStoreFinder
	vendorA uuid.UUID
	vendorB uuid.UUID
}

func pinnedWallet(balance int) *models.Wallet {
	hash := "argon2id-stub"
	return &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: balance, PinHash: &hash}
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	vendorA := uuid.New()
	vendorB := uuid.New()
	cartID := uuid.New()

	carts := &stubCartRepo{record: &models.CartRecord{
		ID:           cartID,
		ShopperPhone: "8031234567",
		Status:       enums.CartStatusActive,
		Items: []models.CartItem{
			{ID: uuid.New(), CartID: cartID, ProductID: uuid.New(), VendorStoreID: vendorA, Name: "Ankara Tote", UnitPrice: 4_500, Quantity: 2, Position: 0},
			{ID: uuid.New(), CartID: cartID, ProductID: uuid.New(), VendorStoreID: vendorB, Name: "Shea Butter", UnitPrice: 2_000, Quantity: 1, Position: 1},
			{ID: uuid.New(), CartID: cartID, ProductID: uuid.New(), VendorStoreID: vendorA, Name: "Beaded Clutch", UnitPrice: 1_000, Quantity: 1, Position: 2},
		},
	}}
	stores := &stubStoreFinder{stores: map[uuid.UUID]*models.Store{
		vendorA: {ID: vendorA, Name: "Ada Crafts", ContactPhone: "08039876543", Tier: enums.SubscriptionTierFree, IsActive: true},
		vendorB: {ID: vendorB, Name: "Lagos Naturals", ContactPhone: "07012345678", Tier: enums.SubscriptionTierPremium, IsActive: true},
	}}
	orderRepo := &stubOrderRepo{}
	wallets := &checkoutWalletStub{}
	pins := &stubPinVerifier{}
	idem := newStubIdemStore()

	engine, err := loyalty.NewEngine(config.LoyaltyConfig{RedemptionCapPercent: 5, EarnMinPercent: 1, EarnMaxPercent: 15})
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel})

	svc, err := NewService(
		carts,
		stores,
		orderRepo,
		wallets,
		pins,
		engine,
		passthroughRunner{},
		idem,
		metrics.NewCheckoutMetrics(nil),
		config.HandoffConfig{CountryCode: "234"},
		logg,
	)
	require.NoError(t, err)

	return &checkoutFixture{service: svc, carts: carts, orders: orderRepo, wallets: wallets, pins: pins, idem: idem, stores: stores, vendorA: vendorA, vendorB: vendorB}
}

func submitInput(vendorID uuid.UUID, redeem bool) SubmitInput {
	input := SubmitInput{
		ShopperPhone:  "08031234567",
		VendorStoreID: vendorID,
		Customer: helpers.CustomerDetails{
			Name:    "Ada Obi",
			Phone:   "08031234567",
			Address: "12 Allen Avenue, Ikeja",
		},
		RedeemCoins: redeem,
	}
	if redeem {
		input.WalletPin = "1234"
	}
	return input
}

func TestSubmitWithoutRedemption(t *testing.T) {
	f := newCheckoutFixture(t)

	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)

	assert.Equal(t, enums.CheckoutStateSent, result.State)
	assert.False(t, result.Replayed)
	assert.Equal(t, 10_000, result.Subtotal)
	assert.Zero(t, result.CoinsApplied)
	assert.Equal(t, 10_000, result.AmountDue)
	require.NotNil(t, result.Handoff)
	assert.Equal(t, "2348039876543", result.Handoff.Target)

	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, f.vendorA, order.VendorStoreID)
	assert.Equal(t, "8031234567", order.ShopperPhone)
	assert.Len(t, order.Items, 2)

	// only vendor A's lines left the cart
	require.Len(t, f.carts.record.Items, 1)
	assert.Equal(t, f.vendorB, f.carts.record.Items[0].VendorStoreID)
	assert.Empty(t, f.carts.converted)
}

func TestSubmitRedemptionCapBound(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = pinnedWallet(1_000)

	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.NoError(t, err)

	// 5% of ₦10,000 binds before the 1,000-coin balance
	assert.Equal(t, 1, f.pins.calls)
	assert.Equal(t, 500, result.CoinsApplied)
	assert.Equal(t, 9_500, result.AmountDue)
	assert.Equal(t, 500, f.wallets.wallet.Balance)

	require.Len(t, f.wallets.txns, 1)
	spend := f.wallets.txns[0]
	assert.Equal(t, enums.CoinTransactionKindSpend, spend.Kind)
	assert.Equal(t, 500, spend.Amount)
	require.NotNil(t, spend.OrderID)
	assert.Equal(t, f.orders.created[0].ID, *spend.OrderID)
}

func TestSubmitRedemptionBalanceBound(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = pinnedWallet(150)

	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.NoError(t, err)

	assert.Equal(t, 150, result.CoinsApplied)
	assert.Equal(t, 9_850, result.AmountDue)
	assert.Zero(t, f.wallets.wallet.Balance)
}

func TestSubmitRedeemWithoutWalletFallsBackToZero(t *testing.T) {
	f := newCheckoutFixture(t)

	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.NoError(t, err)

	assert.Zero(t, result.CoinsApplied)
	assert.Equal(t, 10_000, result.AmountDue)
	assert.Empty(t, f.wallets.txns)
	assert.Zero(t, f.pins.calls)
}

func TestSubmitRefusesRedemptionBeforePinSetup(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: 1_000}
	f.pins.err = pkgerrors.New(pkgerrors.CodeStateConflict, "pin setup required")

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	// nothing moved: no debit, no order, no ledger entry
	assert.Equal(t, 1_000, f.wallets.wallet.Balance)
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.wallets.txns)
}

func TestSubmitRejectsWrongPinOnRedemption(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = pinnedWallet(1_000)
	f.pins.err = pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect pin")

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, 1, f.pins.calls)

	assert.Equal(t, 1_000, f.wallets.wallet.Balance)
	assert.Empty(t, f.orders.created)
}

func TestRepeatSubmissionIsNoOp(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.failRemove = gorm.ErrInvalidDB // keep vendor lines so the replay reaches the session

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)

	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)

	assert.True(t, result.Replayed)
	assert.Equal(t, enums.CheckoutStateSent, result.State)
	assert.Nil(t, result.OrderID)
	assert.Len(t, f.orders.created, 1)
}

func TestReplayMarkerSurvivesRestart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.failRemove = gorm.ErrInvalidDB // keep vendor lines in the cart

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)

	// a fresh service loses the in-memory session but shares the marker store
	engine, err := loyalty.NewEngine(config.LoyaltyConfig{RedemptionCapPercent: 5, EarnMinPercent: 1, EarnMaxPercent: 15})
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel})
	restarted, err := NewService(
		f.carts,
		f.stores,
		f.orders,
		f.wallets,
		f.pins,
		engine,
		passthroughRunner{},
		f.idem,
		metrics.NewCheckoutMetrics(nil),
		config.HandoffConfig{CountryCode: "234"},
		logg,
	)
	require.NoError(t, err)

	result, err := restarted.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Len(t, f.orders.created, 1)
}

func TestDebitConflictFailsVendorOnly(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = pinnedWallet(1_000)
	f.wallets.failDebit = true

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Empty(t, f.orders.created)

	states, err := f.service.VendorStates(context.Background(), "08031234567")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateFailed, states[f.vendorA])
	assert.Equal(t, enums.CheckoutStateIdle, states[f.vendorB])

	// a failed vendor may retry once the conflict clears
	f.wallets.failDebit = false
	result, err := f.service.Submit(context.Background(), submitInput(f.vendorA, true))
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateSent, result.State)
}

func TestSubmitValidatesCustomerBeforeAnyStateChange(t *testing.T) {
	f := newCheckoutFixture(t)

	input := submitInput(f.vendorA, false)
	input.Customer.Address = ""

	_, err := f.service.Submit(context.Background(), input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	states, err := f.service.VendorStates(context.Background(), "08031234567")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateIdle, states[f.vendorA])
	assert.Len(t, f.orders.created, 0)
}

func TestSubmitRejectsVendorAbsentFromCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Submit(context.Background(), submitInput(uuid.New(), false))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSubmitRejectsInactiveVendor(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.record.Items = f.carts.record.Items[:1]
	vendorA := f.vendorA
	stores := &stubStoreFinder{stores: map[uuid.UUID]*models.Store{
		vendorA: {ID: vendorA, Name: "Ada Crafts", ContactPhone: "08039876543", IsActive: false},
	}}
	svc := f.service.(*service)
	svc.stores = stores

	_, err := svc.Submit(context.Background(), submitInput(vendorA, false))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestSubmitRejectsUnusableVendorPhoneBeforeDebit(t *testing.T) {
	f := newCheckoutFixture(t)
	f.wallets.wallet = pinnedWallet(1_000)
	svc := f.service.(*service)
	svc.stores = &stubStoreFinder{stores: map[uuid.UUID]*models.Store{
		f.vendorA: {ID: f.vendorA, Name: "Ada Crafts", ContactPhone: "911", IsActive: true},
	}}

	_, err := svc.Submit(context.Background(), submitInput(f.vendorA, true))
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	assert.Equal(t, 1_000, f.wallets.wallet.Balance)
	assert.Empty(t, f.orders.created)
}

func TestSubmitLastVendorConvertsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	cartID := f.carts.record.ID
	f.carts.record.Items = []models.CartItem{
		{ID: uuid.New(), CartID: cartID, ProductID: uuid.New(), VendorStoreID: f.vendorA, Name: "Ankara Tote", UnitPrice: 4_500, Quantity: 1, Position: 0},
	}

	_, err := f.service.Submit(context.Background(), submitInput(f.vendorA, false))
	require.NoError(t, err)

	require.Len(t, f.carts.converted, 1)
	assert.Equal(t, cartID, f.carts.converted[0])
}

func TestVendorStatesWithoutCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.record = nil

	states, err := f.service.VendorStates(context.Background(), "08031234567")
	require.NoError(t, err)
	assert.Empty(t, states)
}
