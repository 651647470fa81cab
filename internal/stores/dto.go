package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// StoreDTO exposes safe vendor data in API responses. ContactPhone stays
// internal; shoppers reach vendors only through checkout handoffs.
type StoreDTO struct {
	ID                    uuid.UUID              `json:"id"`
	Name                  string                 `json:"name"`
	Description           *string                `json:"description,omitempty"`
	Tier                  enums.SubscriptionTier `json:"tier"`
	SubscriptionExpiresAt *time.Time             `json:"subscription_expires_at,omitempty"`
	LoyaltyEnabled        bool                   `json:"loyalty_enabled"`
	LoyaltyPercent        int                    `json:"loyalty_percent"`
	Categories            []string               `json:"categories"`
	LogoURL               *string                `json:"logo_url,omitempty"`
	IsActive              bool                   `json:"is_active"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// CreateStoreDTO holds creation-time data for a new vendor.
type CreateStoreDTO struct {
	Name           string
	Description    *string
	ContactPhone   string
	Tier           *enums.SubscriptionTier
	LoyaltyEnabled *bool
	LoyaltyPercent *int
	Categories     []string
	LogoURL        *string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}

	return &StoreDTO{
		ID:                    m.ID,
		Name:                  m.Name,
		Description:           m.Description,
		Tier:                  m.Tier,
		SubscriptionExpiresAt: m.SubscriptionExpiresAt,
		LoyaltyEnabled:        m.LoyaltyEnabled,
		LoyaltyPercent:        m.LoyaltyPercent,
		Categories:            append([]string(nil), m.Categories...),
		LogoURL:               m.LogoURL,
		IsActive:              m.IsActive,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateStoreDTO) ToModel() *models.Store {
	model := &models.Store{
		Name:         c.Name,
		Description:  c.Description,
		ContactPhone: c.ContactPhone,
		Tier:         enums.SubscriptionTierFree,
		Categories:   c.Categories,
		LogoURL:      c.LogoURL,
		IsActive:     true,
	}

	if c.Tier != nil {
		model.Tier = *c.Tier
	}
	if c.LoyaltyEnabled != nil {
		model.LoyaltyEnabled = *c.LoyaltyEnabled
	}
	if c.LoyaltyPercent != nil {
		model.LoyaltyPercent = *c.LoyaltyPercent
	}

	return model
}
