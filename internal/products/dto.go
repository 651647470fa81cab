package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
)

// ProductDTO is the buyer-facing projection of a listing.
type ProductDTO struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	ImageURL  *string   `json:"image_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProductDTO holds creation-time data for a listing.
type CreateProductDTO struct {
	StoreID  uuid.UUID
	Name     string
	Price    int
	ImageURL *string
}

// FromModel maps the persisted product into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		Price:     m.Price,
		ImageURL:  m.ImageURL,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO.
func (c CreateProductDTO) ToModel() *models.Product {
	return &models.Product{
		StoreID:  c.StoreID,
		Name:     c.Name,
		Price:    c.Price,
		ImageURL: c.ImageURL,
		IsActive: true,
	}
}
