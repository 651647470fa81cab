package controllers

import (
	"net/http"

	"github.com/oluwatobiadeoye/kolamart-backend/api/responses"
	"github.com/oluwatobiadeoye/kolamart-backend/api/validators"
	walletsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

type walletSetPinRequest struct {
	Phone      string `json:"phone" validate:"required"`
	Pin        string `json:"pin" validate:"required,len=4"`
	ConfirmPin string `json:"confirm_pin" validate:"required,len=4"`
}

// walletUnlockRequest carries the PIN in the body so it never lands in access
// logs or browser history.
type walletUnlockRequest struct {
	Phone string `json:"phone" validate:"required"`
	Pin   string `json:"pin" validate:"required,len=4"`
}

// WalletLookup reports whether a wallet exists for the phone and whether its
// PIN has been set. It never exposes the balance.
func WalletLookup(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawPhone, err := validators.RequireQueryPhone(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lookup, err := svc.Lookup(r.Context(), rawPhone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lookup)
	}
}

// WalletSetPin completes the one-time PIN setup.
func WalletSetPin(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload walletSetPinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetPin(r.Context(), payload.Phone, payload.Pin, payload.ConfirmPin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "pin_set"})
	}
}

// WalletBalance returns the coin balance after PIN verification.
func WalletBalance(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload walletUnlockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), payload.Phone, payload.Pin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// WalletAudit checks the cached balance against the ledger running sum. An
// operational endpoint: it exposes no balances, only whether they agree.
func WalletAudit(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawPhone, err := validators.RequireQueryPhone(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Audit(r.Context(), rawPhone); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "consistent"})
	}
}

// WalletHistory returns the coin ledger, newest first, after PIN verification.
func WalletHistory(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload walletUnlockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), payload.Phone, payload.Pin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
