package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListActive(ctx context.Context) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
}

// Service exposes vendor store operations.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	ListActive(ctx context.Context) ([]*StoreDTO, error)
	Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	UpdateLoyaltySettings(ctx context.Context, storeID uuid.UUID, input LoyaltySettingsInput) (*StoreDTO, error)
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// CreateStoreInput captures the fields required to onboard a vendor.
type CreateStoreInput struct {
	Name         string                  `json:"name" validate:"required"`
	Description  *string                 `json:"description,omitempty"`
	ContactPhone string                  `json:"contact_phone" validate:"required"`
	Tier         *enums.SubscriptionTier `json:"tier,omitempty"`
	Categories   []string                `json:"categories,omitempty"`
	LogoURL      *string                 `json:"logo_url,omitempty"`
}

// LoyaltySettingsInput mutates the vendor's coin program configuration.
type LoyaltySettingsInput struct {
	Enabled *bool `json:"enabled,omitempty"`
	Percent *int  `json:"percent,omitempty" validate:"omitempty,min=0,max=100"`
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}
	return FromModel(store), nil
}

func (s *service) ListActive(ctx context.Context) ([]*StoreDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stores")
	}
	out := make([]*StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if _, err := phone.Normalize(input.ContactPhone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "contact phone is invalid")
	}
	if input.Tier != nil && !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", *input.Tier))
	}

	store, err := s.repo.Create(ctx, CreateStoreDTO{
		Name:         name,
		Description:  input.Description,
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Tier:         input.Tier,
		Categories:   input.Categories,
		LogoURL:      input.LogoURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating store")
	}
	return FromModel(store), nil
}

func (s *service) UpdateLoyaltySettings(ctx context.Context, storeID uuid.UUID, input LoyaltySettingsInput) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}

	if input.Percent != nil {
		if *input.Percent < 0 || *input.Percent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty percent must be within 0..100")
		}
		store.LoyaltyPercent = *input.Percent
	}
	if input.Enabled != nil {
		store.LoyaltyEnabled = *input.Enabled
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating store")
	}
	return FromModel(store), nil
}
