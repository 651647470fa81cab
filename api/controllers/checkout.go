package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/api/responses"
	"github.com/oluwatobiadeoye/kolamart-backend/api/validators"
	checkoutsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/checkout"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/checkout/helpers"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

type checkoutSubmitRequest struct {
	Phone         string    `json:"phone" validate:"required"`
	VendorStoreID uuid.UUID `json:"vendor_store_id" validate:"required"`
	CustomerName  string    `json:"customer_name" validate:"required"`
	CustomerPhone string    `json:"customer_phone" validate:"required"`
	Address       string    `json:"address" validate:"required"`
	RedeemCoins   bool      `json:"redeem_coins"`
	WalletPin     string    `json:"wallet_pin" validate:"omitempty,len=4"`
}

// CheckoutSubmit sends one vendor's portion of the cart through checkout.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), checkoutsvc.SubmitInput{
			ShopperPhone:  payload.Phone,
			VendorStoreID: payload.VendorStoreID,
			Customer: helpers.CustomerDetails{
				Name:    payload.CustomerName,
				Phone:   payload.CustomerPhone,
				Address: payload.Address,
			},
			RedeemCoins: payload.RedeemCoins,
			WalletPin:   payload.WalletPin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutStates reports the per-vendor submission states for the active cart.
func CheckoutStates(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawPhone, err := validators.RequireQueryPhone(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		states, err := svc.VendorStates(r.Context(), rawPhone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, states)
	}
}
