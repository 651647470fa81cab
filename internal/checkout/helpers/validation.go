package helpers

import (
	"strings"

	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

// CustomerDetails is the delivery contact block a vendor receives.
type CustomerDetails struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// ValidateCustomer ensures every delivery field is present before any order is
// created. Missing details fail the whole submission, not a single vendor.
func ValidateCustomer(details CustomerDetails) error {
	missing := []string{}
	if strings.TrimSpace(details.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(details.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(details.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer details incomplete: "+strings.Join(missing, ", "))
	}

	if _, err := phone.Normalize(details.Phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "customer phone is invalid")
	}
	return nil
}
