package listings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

type stubLister struct {
	rows []models.Product
}

func (s *stubLister) ListActive(context.Context) ([]models.Product, error) {
	return s.rows, nil
}

type stubVendorLoader struct {
	vendors map[uuid.UUID]models.Store
}

func (s *stubVendorLoader) FindByIDs(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]models.Store, error) {
	return s.vendors, nil
}

func TestFeedAnnotatesVendorAndAppliesTierRules(t *testing.T) {
	t.Parallel()

	diamond := vendor(enums.SubscriptionTierDiamond, nil)
	diamond.Name = "Eko Luxe"
	free := vendor(enums.SubscriptionTierFree, nil)
	free.Name = "Mama Nkechi"

	rows := append(productsFor(free.ID, 7), productsFor(diamond.ID, 2)...)
	svc, err := NewService(
		&stubLister{rows: rows},
		&stubVendorLoader{vendors: map[uuid.UUID]models.Store{diamond.ID: diamond, free.ID: free}},
		config.ListingConfig{FreeTierProductCap: 5},
	)
	require.NoError(t, err)

	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)

	// diamond first, free capped at 5
	require.Len(t, feed, 7)
	assert.Equal(t, "Eko Luxe", feed[0].VendorName)
	assert.Equal(t, enums.SubscriptionTierDiamond, feed[0].VendorTier)
	assert.Equal(t, "Mama Nkechi", feed[2].VendorName)
}

func TestFeedHidesExpiredPaidVendors(t *testing.T) {
	t.Parallel()

	lapsed := time.Now().Add(-time.Hour)
	expired := vendor(enums.SubscriptionTierPremium, &lapsed)

	svc, err := NewService(
		&stubLister{rows: productsFor(expired.ID, 3)},
		&stubVendorLoader{vendors: map[uuid.UUID]models.Store{expired.ID: expired}},
		config.ListingConfig{FreeTierProductCap: 5},
	)
	require.NoError(t, err)

	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, feed)
}
