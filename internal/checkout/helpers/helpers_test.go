package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

func line(vendorID uuid.UUID, name string, price, qty, position int) models.CartItem {
	return models.CartItem{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		VendorStoreID: vendorID,
		Name:          name,
		UnitPrice:     price,
		Quantity:      qty,
		Position:      position,
	}
}

func TestGroupByVendorKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	vendorA := uuid.New()
	vendorB := uuid.New()
	items := []models.CartItem{
		line(vendorA, "A1", 1_000, 1, 0),
		line(vendorB, "B1", 2_000, 1, 1),
		line(vendorA, "A2", 500, 2, 2),
	}

	groups := GroupByVendor(items)
	require.Len(t, groups, 2)

	assert.Equal(t, vendorA, groups[0].VendorStoreID)
	assert.Equal(t, 2, groups[0].ItemCount)
	assert.Equal(t, 2_000, groups[0].Subtotal)
	assert.Equal(t, "A1", groups[0].Items[0].Name)
	assert.Equal(t, "A2", groups[0].Items[1].Name)

	assert.Equal(t, vendorB, groups[1].VendorStoreID)
	assert.Equal(t, 2_000, groups[1].Subtotal)
}

func TestGroupByVendorEmptyCart(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GroupByVendor(nil))
}

func TestFindVendorGroup(t *testing.T) {
	t.Parallel()

	vendorA := uuid.New()
	items := []models.CartItem{line(vendorA, "A1", 1_000, 1, 0)}

	group, ok := FindVendorGroup(items, vendorA)
	require.True(t, ok)
	assert.Equal(t, 1_000, group.Subtotal)

	_, ok = FindVendorGroup(items, uuid.New())
	assert.False(t, ok)
}

func TestValidateCustomerReportsAllMissingFields(t *testing.T) {
	t.Parallel()

	err := ValidateCustomer(CustomerDetails{Name: " ", Phone: "", Address: ""})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Contains(t, appErr.Message(), "name")
	assert.Contains(t, appErr.Message(), "phone")
	assert.Contains(t, appErr.Message(), "address")
}

func TestValidateCustomerRejectsShortPhone(t *testing.T) {
	t.Parallel()

	err := ValidateCustomer(CustomerDetails{Name: "Ada Obi", Phone: "12345", Address: "12 Allen Avenue"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestValidateCustomerAcceptsCompleteDetails(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateCustomer(CustomerDetails{
		Name:    "Ada Obi",
		Phone:   "08031234567",
		Address: "12 Allen Avenue, Ikeja",
	}))
}
