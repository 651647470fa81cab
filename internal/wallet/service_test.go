package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

type stubWalletRepo struct {
	wallets map[string]*models.Wallet
	txns    []*models.CoinTransaction
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{wallets: map[string]*models.Wallet{}}
}

func (s *stubWalletRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubWalletRepo) Create(_ context.Context, wallet *models.Wallet) error {
	s.wallets[wallet.Phone] = wallet
	return nil
}

func (s *stubWalletRepo) FindByPhone(_ context.Context, phone string) (*models.Wallet, error) {
	wallet, ok := s.wallets[phone]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return wallet, nil
}

func (s *stubWalletRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Wallet, error) {
	for _, wallet := range s.wallets {
		if wallet.ID == id {
			return wallet, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubWalletRepo) UpdatePinHash(_ context.Context, id uuid.UUID, hash string) error {
	for _, wallet := range s.wallets {
		if wallet.ID == id {
			wallet.PinHash = &hash
		}
	}
	return nil
}

func (s *stubWalletRepo) Credit(_ context.Context, id uuid.UUID, amount int) error {
	for _, wallet := range s.wallets {
		if wallet.ID == id {
			wallet.Balance += amount
		}
	}
	return nil
}

func (s *stubWalletRepo) DebitGuarded(_ context.Context, id uuid.UUID, amount int) (bool, error) {
	for _, wallet := range s.wallets {
		if wallet.ID == id {
			if wallet.Balance < amount {
				return false, nil
			}
			wallet.Balance -= amount
			return true, nil
		}
	}
	return false, nil
}

func (s *stubWalletRepo) AppendTransaction(_ context.Context, txn *models.CoinTransaction) error {
	s.txns = append(s.txns, txn)
	return nil
}

func (s *stubWalletRepo) HasOrderTransaction(_ context.Context, orderID uuid.UUID, kind enums.CoinTransactionKind) (bool, error) {
	for _, txn := range s.txns {
		if txn.OrderID != nil && *txn.OrderID == orderID && txn.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubWalletRepo) ListTransactions(_ context.Context, walletID uuid.UUID) ([]models.CoinTransaction, error) {
	out := []models.CoinTransaction{}
	for _, txn := range s.txns {
		if txn.WalletID == walletID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (s *stubWalletRepo) LedgerSum(_ context.Context, walletID uuid.UUID) (int, error) {
	sum := 0
	for _, txn := range s.txns {
		if txn.WalletID != walletID {
			continue
		}
		if txn.Kind == enums.CoinTransactionKindEarn {
			sum += txn.Amount
		} else {
			sum -= txn.Amount
		}
	}
	return sum, nil
}

type stubLimiter struct {
	counts  map[string]int64
	cleared []string
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{counts: map[string]int64{}}
}

func (s *stubLimiter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func (s *stubLimiter) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.counts, key)
		s.cleared = append(s.cleared, key)
	}
	return nil
}

func (s *stubLimiter) RateLimitKey(scope string) string { return "km:rate_limit:" + scope }

type stubRunner struct{}

func (stubRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func walletTestConfig() config.WalletConfig {
	return config.WalletConfig{
		PinAttemptWindow: 15 * time.Minute,
		PinAttemptLimit:  3,
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T, repo Repository, limiter attemptLimiter) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "wallet-test", Level: zerolog.ErrorLevel})

	svc, err := NewService(repo, stubRunner{}, limiter, walletTestConfig(), logg)
	require.NoError(t, err)
	return svc
}

func TestLookupStates(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	dto, err := svc.Lookup(context.Background(), "08031234567")
	require.NoError(t, err)
	assert.False(t, dto.Exists)

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: 120}
	require.NoError(t, repo.Create(context.Background(), wallet))

	dto, err = svc.Lookup(context.Background(), "+2348031234567")
	require.NoError(t, err)
	assert.True(t, dto.Exists)
	assert.False(t, dto.PinSet)
	assert.True(t, dto.HasCoins)
}

func TestSetPinValidationAndOneTimeGuard(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567"}
	require.NoError(t, repo.Create(context.Background(), wallet))

	err := svc.SetPin(context.Background(), "08031234567", "12ab", "12ab")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	err = svc.SetPin(context.Background(), "08031234567", "1234", "4321")
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	require.NoError(t, svc.SetPin(context.Background(), "08031234567", "1234", "1234"))
	assert.True(t, wallet.HasPin())

	err = svc.SetPin(context.Background(), "08031234567", "5678", "5678")
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestBalanceRequiresCorrectPin(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	limiter := newStubLimiter()
	svc := newTestService(t, repo, limiter)

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: 250}
	require.NoError(t, repo.Create(context.Background(), wallet))
	require.NoError(t, svc.SetPin(context.Background(), "08031234567", "1234", "1234"))

	_, err := svc.Balance(context.Background(), "08031234567", "0000")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())

	dto, err := svc.Balance(context.Background(), "08031234567", "1234")
	require.NoError(t, err)
	assert.Equal(t, 250, dto.Balance)
	assert.NotEmpty(t, limiter.cleared)
}

func TestVerifyPinGatesSpending(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: 400}
	require.NoError(t, repo.Create(context.Background(), wallet))

	// no PIN set yet: the wallet cannot verify at all
	err := svc.VerifyPin(context.Background(), "08031234567", "1234")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	require.NoError(t, svc.SetPin(context.Background(), "08031234567", "1234", "1234"))

	err = svc.VerifyPin(context.Background(), "08031234567", "0000")
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())

	assert.NoError(t, svc.VerifyPin(context.Background(), "08031234567", "1234"))
}

func TestUnlockLockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	limiter := newStubLimiter()
	svc := newTestService(t, repo, limiter)

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567"}
	require.NoError(t, repo.Create(context.Background(), wallet))
	require.NoError(t, svc.SetPin(context.Background(), "08031234567", "1234", "1234"))

	for i := 0; i < 3; i++ {
		_, err := svc.Balance(context.Background(), "08031234567", "0000")
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	}

	// fourth attempt exceeds the window limit even with the right pin
	_, err := svc.Balance(context.Background(), "08031234567", "1234")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeRateLimit, appErr.Code())
}

func TestRecordEarnCreatesWalletLazily(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	orderID := uuid.New()
	require.NoError(t, svc.RecordEarn(context.Background(), RecordEarnInput{
		Phone:       "08031234567",
		OrderID:     orderID,
		Amount:      150,
		Description: "Purchase reward",
	}))

	wallet, err := repo.FindByPhone(context.Background(), "8031234567")
	require.NoError(t, err)
	assert.Equal(t, 150, wallet.Balance)
	require.Len(t, repo.txns, 1)
	assert.Equal(t, enums.CoinTransactionKindEarn, repo.txns[0].Kind)
}

func TestRecordEarnIsIdempotentPerOrder(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	orderID := uuid.New()
	input := RecordEarnInput{Phone: "08031234567", OrderID: orderID, Amount: 150}
	require.NoError(t, svc.RecordEarn(context.Background(), input))
	require.NoError(t, svc.RecordEarn(context.Background(), input))

	wallet, err := repo.FindByPhone(context.Background(), "8031234567")
	require.NoError(t, err)
	assert.Equal(t, 150, wallet.Balance)
	assert.Len(t, repo.txns, 1)
}

func TestRecordEarnIgnoresZeroAward(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	require.NoError(t, svc.RecordEarn(context.Background(), RecordEarnInput{
		Phone:   "08031234567",
		OrderID: uuid.New(),
		Amount:  0,
	}))
	assert.Empty(t, repo.wallets)
}

func TestAuditDetectsDrift(t *testing.T) {
	t.Parallel()

	repo := newStubWalletRepo()
	svc := newTestService(t, repo, newStubLimiter())

	wallet := &models.Wallet{ID: uuid.New(), Phone: "8031234567", Balance: 100}
	require.NoError(t, repo.Create(context.Background(), wallet))
	require.NoError(t, repo.AppendTransaction(context.Background(), &models.CoinTransaction{
		ID:       uuid.New(),
		WalletID: wallet.ID,
		Kind:     enums.CoinTransactionKindEarn,
		Amount:   60,
	}))

	err := svc.Audit(context.Background(), "08031234567")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	require.NoError(t, repo.AppendTransaction(context.Background(), &models.CoinTransaction{
		ID:       uuid.New(),
		WalletID: wallet.ID,
		Kind:     enums.CoinTransactionKindEarn,
		Amount:   40,
	}))
	assert.NoError(t, svc.Audit(context.Background(), "08031234567"))
}
