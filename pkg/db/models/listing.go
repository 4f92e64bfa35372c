package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Listing represents a provider's posted surplus-food offer. TotalQuantity is
// fixed at creation; only status, waste accounting, and counters mutate.
type Listing struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID  uuid.UUID `gorm:"column:provider_id;type:uuid;not null;index"`
	Title       string    `gorm:"column:title;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`

	TotalQuantity decimal.Decimal    `gorm:"column:total_quantity;type:numeric(12,3);not null"`
	Unit          enums.QuantityUnit `gorm:"column:unit;type:text;not null"`

	Freshness enums.FreshnessLevel  `gorm:"column:freshness;type:text;not null"`
	Priority  enums.ListingPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	Status    enums.ListingStatus   `gorm:"column:status;type:listing_status;not null;default:'available';index"`

	SafeUntil      time.Time `gorm:"column:safe_until;not null;index"`
	AvailableFrom  time.Time `gorm:"column:available_from;not null"`
	AvailableUntil time.Time `gorm:"column:available_until;not null"`

	WastedQuantity decimal.Decimal `gorm:"column:wasted_quantity;type:numeric(12,3);not null;default:0"`

	ViewCount  int `gorm:"column:view_count;not null;default:0"`
	ClaimCount int `gorm:"column:claim_count;not null;default:0"`

	ExpiredAt   *time.Time `gorm:"column:expired_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	Claims []Claim `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
