package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes shopper cart operations keyed by phone identity.
type Service interface {
	Get(ctx context.Context, rawPhone string) (*CartDTO, error)
	AddItem(ctx context.Context, rawPhone string, productID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, rawPhone string, productID uuid.UUID) (*CartDTO, error)
	SetQuantity(ctx context.Context, rawPhone string, productID uuid.UUID, quantity int) (*CartDTO, error)
	Clear(ctx context.Context, rawPhone string) (*CartDTO, error)
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) session(ctx context.Context, rawPhone string) (*Store, error) {
	store := NewStore(s.repo)
	if err := store.Load(ctx, rawPhone); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *service) Get(ctx context.Context, rawPhone string) (*CartDTO, error) {
	store, err := s.session(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	return FromStore(store), nil
}

// AddItem snapshots the product into the cart. Inactive listings cannot be
// added; existing snapshots keep their captured price.
func (s *service) AddItem(ctx context.Context, rawPhone string, productID uuid.UUID, quantity int) (*CartDTO, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
	}

	store, err := s.session(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	if err := store.Add(ctx, AddItemInput{
		ProductID:     product.ID,
		VendorStoreID: product.StoreID,
		Name:          product.Name,
		UnitPrice:     product.Price,
		ImageURL:      product.ImageURL,
		Quantity:      quantity,
	}); err != nil {
		return nil, err
	}
	return FromStore(store), nil
}

func (s *service) RemoveItem(ctx context.Context, rawPhone string, productID uuid.UUID) (*CartDTO, error) {
	store, err := s.session(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	if err := store.Remove(ctx, productID); err != nil {
		return nil, err
	}
	return FromStore(store), nil
}

func (s *service) SetQuantity(ctx context.Context, rawPhone string, productID uuid.UUID, quantity int) (*CartDTO, error) {
	store, err := s.session(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	if err := store.SetQuantity(ctx, productID, quantity); err != nil {
		return nil, err
	}
	return FromStore(store), nil
}

func (s *service) Clear(ctx context.Context, rawPhone string) (*CartDTO, error) {
	store, err := s.session(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	if err := store.Clear(ctx); err != nil {
		return nil, err
	}
	return FromStore(store), nil
}
