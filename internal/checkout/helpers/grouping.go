package helpers

import (
	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
)

// VendorSubCart is one vendor's slice of a mixed cart.
type VendorSubCart struct {
	VendorStoreID uuid.UUID
	Items         []models.CartItem
	Subtotal      int
	ItemCount     int
}

// GroupByVendor partitions cart lines into per-vendor sub-carts. Vendors
// appear in the order their first item entered the cart, and lines keep their
// insertion order inside each group. Grouping is a pure view: the underlying
// cart is never mutated.
func GroupByVendor(items []models.CartItem) []VendorSubCart {
	groups := make([]VendorSubCart, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))

	for _, item := range items {
		at, seen := index[item.VendorStoreID]
		if !seen {
			at = len(groups)
			index[item.VendorStoreID] = at
			groups = append(groups, VendorSubCart{VendorStoreID: item.VendorStoreID})
		}
		groups[at].Items = append(groups[at].Items, item)
		groups[at].Subtotal += item.LineTotal()
		groups[at].ItemCount++
	}
	return groups
}

// FindVendorGroup returns the sub-cart for one vendor, if present.
func FindVendorGroup(items []models.CartItem, vendorStoreID uuid.UUID) (VendorSubCart, bool) {
	for _, group := range GroupByVendor(items) {
		if group.VendorStoreID == vendorStoreID {
			return group, true
		}
	}
	return VendorSubCart{}, false
}
