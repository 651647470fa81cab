package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/internal/products"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

type productLister interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

type vendorLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Store, error)
}

// ListingDTO is one entry in the aggregated marketplace feed.
type ListingDTO struct {
	Product    products.ProductDTO    `json:"product"`
	VendorName string                 `json:"vendor_name"`
	VendorTier enums.SubscriptionTier `json:"vendor_tier"`
}

// Service builds the buyer-facing marketplace feed.
type Service interface {
	Feed(ctx context.Context) ([]ListingDTO, error)
}

type service struct {
	products productLister
	vendors  vendorLoader
	cfg      config.ListingConfig
	now      func() time.Time
}

// NewService wires the aggregated feed service.
func NewService(productsRepo productLister, vendors vendorLoader, cfg config.ListingConfig) (Service, error) {
	if productsRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{products: productsRepo, vendors: vendors, cfg: cfg, now: time.Now}, nil
}

func (s *service) Feed(ctx context.Context) ([]ListingDTO, error) {
	rows, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	vendorIDs := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.StoreID]; ok {
			continue
		}
		seen[row.StoreID] = struct{}{}
		vendorIDs = append(vendorIDs, row.StoreID)
	}

	vendors, err := s.vendors.FindByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading vendors")
	}

	visible := FilterAggregated(rows, vendors, s.now(), s.cfg.FreeTierProductCap)
	feed := make([]ListingDTO, 0, len(visible))
	for i := range visible {
		vendor := vendors[visible[i].StoreID]
		feed = append(feed, ListingDTO{
			Product:    *products.FromModel(&visible[i]),
			VendorName: vendor.Name,
			VendorTier: vendor.Tier,
		})
	}
	return feed, nil
}
