package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Claim represents a receiver's request against a listing's quantity. Claims
// are never deleted; rejection and cancellation are terminal statuses so the
// audit trail and waste accounting survive.
type Claim struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	ReceiverID uuid.UUID `gorm:"column:receiver_id;type:uuid;not null;index"`

	RequestedQuantity decimal.Decimal  `gorm:"column:requested_quantity;type:numeric(12,3);not null"`
	ApprovedQuantity  *decimal.Decimal `gorm:"column:approved_quantity;type:numeric(12,3)"`

	Status enums.ClaimStatus `gorm:"column:status;type:claim_status;not null;default:'pending';index"`
	Notes  *string           `gorm:"column:notes;type:text"`

	PickupCode       *string    `gorm:"column:pickup_code;type:text"`
	PickupTime       *time.Time `gorm:"column:pickup_time"`
	ActualPickupTime *time.Time `gorm:"column:actual_pickup_time"`

	CancelReason *string `gorm:"column:cancel_reason;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LedgerQuantity returns the quantity this claim contributes to the listing
// ledger: the provider-approved amount when present, the requested amount
// otherwise.
func (c Claim) LedgerQuantity() decimal.Decimal {
	if c.ApprovedQuantity != nil {
		return *c.ApprovedQuantity
	}
	return c.RequestedQuantity
}
