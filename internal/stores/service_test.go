package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

type stubStoreRepo struct {
	stores  map[uuid.UUID]*models.Store
	created []CreateStoreDTO
	updated []*models.Store
}

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{stores: map[uuid.UUID]*models.Store{}}
}

func (s *stubStoreRepo) Create(_ context.Context, dto CreateStoreDTO) (*models.Store, error) {
	s.created = append(s.created, dto)
	store := dto.ToModel()
	store.ID = uuid.New()
	s.stores[store.ID] = store
	return store, nil
}

func (s *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cpy := *store
	return &cpy, nil
}

func (s *stubStoreRepo) ListActive(_ context.Context) ([]models.Store, error) {
	out := make([]models.Store, 0, len(s.stores))
	for _, store := range s.stores {
		if store.IsActive {
			out = append(out, *store)
		}
	}
	return out, nil
}

func (s *stubStoreRepo) Update(_ context.Context, store *models.Store) error {
	s.updated = append(s.updated, store)
	s.stores[store.ID] = store
	return nil
}

func TestCreateValidatesInput(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubStoreRepo())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateStoreInput{Name: " ", ContactPhone: "08031234567"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Create(context.Background(), CreateStoreInput{Name: "Mama Nkechi", ContactPhone: "12345"})
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateDefaultsToFreeTier(t *testing.T) {
	t.Parallel()

	repo := newStubStoreRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	dto, err := svc.Create(context.Background(), CreateStoreInput{
		Name:         "Mama Nkechi Foods",
		ContactPhone: "08031234567",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionTierFree, dto.Tier)
	assert.True(t, dto.IsActive)
	require.Len(t, repo.created, 1)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubStoreRepo())
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateLoyaltySettings(t *testing.T) {
	t.Parallel()

	repo := newStubStoreRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateStoreInput{
		Name:         "Bukky Threads",
		ContactPhone: "08031234567",
	})
	require.NoError(t, err)

	enabled := true
	percent := 10
	dto, err := svc.UpdateLoyaltySettings(context.Background(), created.ID, LoyaltySettingsInput{
		Enabled: &enabled,
		Percent: &percent,
	})
	require.NoError(t, err)
	assert.True(t, dto.LoyaltyEnabled)
	assert.Equal(t, 10, dto.LoyaltyPercent)

	bad := 120
	_, err = svc.UpdateLoyaltySettings(context.Background(), created.ID, LoyaltySettingsInput{Percent: &bad})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
