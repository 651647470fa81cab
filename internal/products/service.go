package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

type productRepository interface {
	Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type storeFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes vendor listing operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*ProductDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   productRepository
	stores storeFinder
}

// NewService builds a product service with the provided repositories.
func NewService(repo productRepository, stores storeFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores}, nil
}

// CreateProductInput captures the fields required for a new listing.
type CreateProductInput struct {
	StoreID  uuid.UUID `json:"store_id" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	Price    int       `json:"price" validate:"min=0"`
	ImageURL *string   `json:"image_url,omitempty"`
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store")
	}

	product, err := s.repo.Create(ctx, CreateProductDTO{
		StoreID:  input.StoreID,
		Name:     name,
		Price:    input.Price,
		ImageURL: input.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return FromModel(product), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return FromModel(product), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*ProductDTO, error) {
	rows, err := s.repo.ListActiveByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	out := make([]*ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating product")
	}
	return nil
}
