package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// Store represents an independent vendor operating under the platform.
// ContactPhone is the external handle checkout handoffs are addressed to.
type Store struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string                 `gorm:"column:name;not null"`
	Description           *string                `gorm:"column:description"`
	ContactPhone          string                 `gorm:"column:contact_phone;not null"`
	Tier                  enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null;default:'free'"`
	SubscriptionExpiresAt *time.Time             `gorm:"column:subscription_expires_at"`
	LoyaltyEnabled        bool                   `gorm:"column:loyalty_enabled;not null;default:false"`
	LoyaltyPercent        int                    `gorm:"column:loyalty_percent;not null;default:0"`
	Categories            pq.StringArray         `gorm:"column:categories;type:text[]"`
	LogoURL               *string                `gorm:"column:logo_url"`
	IsActive              bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// SubscriptionExpired reports whether a paid tier has lapsed at the given
// instant. Free-tier stores never expire.
func (s Store) SubscriptionExpired(now time.Time) bool {
	if !s.Tier.IsPaid() {
		return false
	}
	return s.SubscriptionExpiresAt != nil && s.SubscriptionExpiresAt.Before(now)
}
