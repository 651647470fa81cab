package cart

import (
	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
)

// ItemDTO is one cart line in API responses.
type ItemDTO struct {
	ProductID     uuid.UUID `json:"product_id"`
	VendorStoreID uuid.UUID `json:"vendor_store_id"`
	Name          string    `json:"name"`
	UnitPrice     int       `json:"unit_price"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Quantity      int       `json:"quantity"`
	LineTotal     int       `json:"line_total"`
}

// CartDTO is the shopper-facing cart snapshot.
type CartDTO struct {
	ID       uuid.UUID `json:"id"`
	Items    []ItemDTO `json:"items"`
	Subtotal int       `json:"subtotal"`
}

// FromStore projects the loaded session into a response DTO.
func FromStore(store *Store) *CartDTO {
	items := store.Items()
	dto := &CartDTO{
		ID:    store.CartID(),
		Items: make([]ItemDTO, 0, len(items)),
	}
	for _, item := range items {
		dto.Items = append(dto.Items, itemFromModel(item))
		dto.Subtotal += item.LineTotal()
	}
	return dto
}

func itemFromModel(m models.CartItem) ItemDTO {
	return ItemDTO{
		ProductID:     m.ProductID,
		VendorStoreID: m.VendorStoreID,
		Name:          m.Name,
		UnitPrice:     m.UnitPrice,
		ImageURL:      m.ImageURL,
		Quantity:      m.Quantity,
		LineTotal:     m.LineTotal(),
	}
}
