package listings

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
)

// FilterAggregated applies tier visibility to the marketplace feed. Paid tiers
// outrank free, an expired paid subscription hides the vendor entirely, and
// free vendors surface at most freeTierCap listings each. Input order (newest
// first) is preserved within each tier.
//
// The rules apply only to the aggregated feed; a vendor's own storefront always
// shows its full catalog.
func FilterAggregated(products []models.Product, vendors map[uuid.UUID]models.Store, now time.Time, freeTierCap int) []models.Product {
	perVendor := map[uuid.UUID]int{}
	kept := make([]models.Product, 0, len(products))

	for _, product := range products {
		vendor, ok := vendors[product.StoreID]
		if !ok || !vendor.IsActive {
			continue
		}
		if vendor.SubscriptionExpired(now) {
			continue
		}
		if !vendor.Tier.IsPaid() {
			if perVendor[product.StoreID] >= freeTierCap {
				continue
			}
			perVendor[product.StoreID]++
		}
		kept = append(kept, product)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return vendors[kept[i].StoreID].Tier.Rank() > vendors[kept[j].StoreID].Tier.Rank()
	})
	return kept
}
