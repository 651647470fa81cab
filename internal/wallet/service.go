package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/security"
)

type attemptLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
	RateLimitKey(scope string) string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes shopper wallet operations. Balance and history reads are
// gated behind PIN verification; earns are recorded by checkout without a PIN.
type Service interface {
	Lookup(ctx context.Context, rawPhone string) (*LookupDTO, error)
	SetPin(ctx context.Context, rawPhone, pin, confirm string) error
	Balance(ctx context.Context, rawPhone, pin string) (*BalanceDTO, error)
	History(ctx context.Context, rawPhone, pin string) ([]TransactionDTO, error)
	VerifyPin(ctx context.Context, rawPhone, pin string) error
	RecordEarn(ctx context.Context, input RecordEarnInput) error
	Audit(ctx context.Context, rawPhone string) error
}

// RecordEarnInput captures an award from a completed purchase.
type RecordEarnInput struct {
	Phone       string
	OrderID     uuid.UUID
	Amount      int
	Description string
}

type service struct {
	repo    Repository
	runner  txRunner
	limiter attemptLimiter
	cfg     config.WalletConfig
	logg    *logger.Logger
}

// NewService wires a wallet service with its repository and PIN attempt limiter.
func NewService(repo Repository, runner txRunner, limiter attemptLimiter, cfg config.WalletConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("attempt limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, runner: runner, limiter: limiter, cfg: cfg, logg: logg}, nil
}

func (s *service) Lookup(ctx context.Context, rawPhone string) (*LookupDTO, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	wallet, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &LookupDTO{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}

	return &LookupDTO{
		Exists:   true,
		PinSet:   wallet.HasPin(),
		HasCoins: wallet.Balance > 0,
	}, nil
}

// SetPin completes the one-time PIN setup. Once a hash exists it can only be
// reset through support tooling, never through this endpoint.
func (s *service) SetPin(ctx context.Context, rawPhone, pin, confirm string) error {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}
	if err := security.ValidatePinFormat(pin); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pin")
	}
	if pin != confirm {
		return pkgerrors.New(pkgerrors.CodeValidation, "pin entries do not match")
	}

	wallet, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}
	if wallet.HasPin() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pin is already set")
	}

	hash, err := security.HashPin(pin, s.cfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing pin")
	}
	if err := s.repo.UpdatePinHash(ctx, wallet.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving pin")
	}
	return nil
}

func (s *service) Balance(ctx context.Context, rawPhone, pin string) (*BalanceDTO, error) {
	wallet, err := s.unlock(ctx, rawPhone, pin)
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{WalletID: wallet.ID, Balance: wallet.Balance}, nil
}

func (s *service) History(ctx context.Context, rawPhone, pin string) ([]TransactionDTO, error) {
	wallet, err := s.unlock(ctx, rawPhone, pin)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	out := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, transactionFromModel(row))
	}
	return out, nil
}

// VerifyPin checks the PIN without exposing wallet data, for callers that gate
// a spend. It shares the attempt limiter with Balance and History, and a wallet
// still awaiting PIN setup never verifies.
func (s *service) VerifyPin(ctx context.Context, rawPhone, pin string) error {
	_, err := s.unlock(ctx, rawPhone, pin)
	return err
}

// unlock verifies the PIN under a fixed attempt window. A successful unlock
// clears the attempt counter.
func (s *service) unlock(ctx context.Context, rawPhone, pin string) (*models.Wallet, error) {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	wallet, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}
	if !wallet.HasPin() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pin setup required")
	}

	key := s.limiter.RateLimitKey("wallet_pin:" + normalized)
	attempts, err := s.limiter.IncrWithTTL(ctx, key, s.cfg.PinAttemptWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting pin attempts")
	}
	if attempts > int64(s.cfg.PinAttemptLimit) {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many pin attempts, try again later")
	}

	ok, err := security.VerifyPin(pin, *wallet.PinHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying pin")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect pin")
	}

	if err := s.limiter.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithWalletID(ctx, wallet.ID.String()), "clearing pin attempt counter failed")
	}
	return wallet, nil
}

// RecordEarn credits coins awarded by a completed purchase. The wallet is
// created lazily on first earn; the order id keys the entry so replays are
// no-ops.
func (s *service) RecordEarn(ctx context.Context, input RecordEarnInput) error {
	normalized, err := phone.Normalize(input.Phone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.Amount <= 0 {
		return nil
	}

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.HasOrderTransaction(ctx, input.OrderID, enums.CoinTransactionKindEarn)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking earn idempotency")
		}
		if exists {
			return nil
		}

		wallet, err := repo.FindByPhone(ctx, normalized)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
			}
			wallet = &models.Wallet{ID: uuid.New(), Phone: normalized}
			if err := repo.Create(ctx, wallet); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating wallet")
			}
		}

		if err := repo.Credit(ctx, wallet.ID, input.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting wallet")
		}

		orderID := input.OrderID
		txn := &models.CoinTransaction{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			OrderID:     &orderID,
			Kind:        enums.CoinTransactionKindEarn,
			Amount:      input.Amount,
			Description: input.Description,
		}
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending earn transaction")
		}
		return nil
	})
}

// Audit verifies the cached balance matches the ledger running sum.
func (s *service) Audit(ctx context.Context, rawPhone string) error {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	wallet, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}

	sum, err := s.repo.LedgerSum(ctx, wallet.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing ledger")
	}

	var audit error
	if wallet.Balance != sum {
		audit = multierr.Append(audit, fmt.Errorf("balance cache %d does not match ledger sum %d", wallet.Balance, sum))
	}
	if wallet.Balance < 0 {
		audit = multierr.Append(audit, fmt.Errorf("balance cache %d is negative", wallet.Balance))
	}
	if audit != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, audit, "wallet ledger drift")
	}
	return nil
}
