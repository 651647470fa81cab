package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

// Persister is the durable side of a cart session.
type Persister interface {
	FindOrCreateActiveByPhone(ctx context.Context, phone string) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
}

// Store is one shopper's working cart. Mutations only persist after Load has
// hydrated the session; until then writes are rejected so a half-initialized
// session can never clobber the saved cart with an empty snapshot.
type Store struct {
	mu        sync.Mutex
	persister Persister

	loaded bool
	cartID uuid.UUID
	phone  string
	items  []models.CartItem
}

// AddItemInput is the immutable product snapshot captured at add time.
type AddItemInput struct {
	ProductID     uuid.UUID
	VendorStoreID uuid.UUID
	Name          string
	UnitPrice     int
	ImageURL      *string
	Quantity      int
}

// NewStore builds an unloaded cart session.
func NewStore(persister Persister) *Store {
	return &Store{persister: persister}
}

// Load hydrates the session from the shopper's active cart, creating one on
// first use, and arms persistence.
func (s *Store) Load(ctx context.Context, rawPhone string) error {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}

	record, err := s.persister.FindOrCreateActiveByPhone(ctx, normalized)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartID = record.ID
	s.phone = normalized
	s.items = append([]models.CartItem(nil), record.Items...)
	s.loaded = true
	return nil
}

// Add puts a product in the cart. Re-adding an existing product increments its
// quantity instead of duplicating the line.
func (s *Store) Add(ctx context.Context, input AddItemInput) error {
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errNotLoaded()
	}

	for i := range s.items {
		if s.items[i].ProductID == input.ProductID {
			s.items[i].Quantity += input.Quantity
			return s.flushLocked(ctx)
		}
	}

	s.items = append(s.items, models.CartItem{
		ID:            uuid.New(),
		CartID:        s.cartID,
		ProductID:     input.ProductID,
		VendorStoreID: input.VendorStoreID,
		Name:          input.Name,
		UnitPrice:     input.UnitPrice,
		ImageURL:      input.ImageURL,
		Quantity:      input.Quantity,
		Position:      s.nextPositionLocked(),
	})
	return s.flushLocked(ctx)
}

// Remove drops a product line entirely.
func (s *Store) Remove(ctx context.Context, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errNotLoaded()
	}

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return s.flushLocked(ctx)
}

// SetQuantity pins a line to the requested quantity, clamped to at least one.
// Removal is an explicit operation, never a side effect of a low quantity.
func (s *Store) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errNotLoaded()
	}

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
			return s.flushLocked(ctx)
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return errNotLoaded()
	}

	s.items = nil
	return s.flushLocked(ctx)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.items...)
}

// CartID returns the persisted cart identifier once loaded.
func (s *Store) CartID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartID
}

// Subtotal is the naira total across all lines.
func (s *Store) Subtotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.LineTotal()
	}
	return total
}

func (s *Store) nextPositionLocked() int {
	next := 0
	for _, item := range s.items {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

func (s *Store) flushLocked(ctx context.Context) error {
	if err := s.persister.ReplaceItems(ctx, s.cartID, append([]models.CartItem(nil), s.items...)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return nil
}

func errNotLoaded() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cart session is not loaded")
}
