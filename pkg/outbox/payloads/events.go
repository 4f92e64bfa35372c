package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// ListingCreatedEvent announces a freshly posted listing.
type ListingCreatedEvent struct {
	ListingID     uuid.UUID             `json:"listingId"`
	ProviderID    uuid.UUID             `json:"providerId"`
	Title         string                `json:"title"`
	TotalQuantity decimal.Decimal       `json:"totalQuantity"`
	Unit          enums.QuantityUnit    `json:"unit"`
	Freshness     enums.FreshnessLevel  `json:"freshness"`
	Priority      enums.ListingPriority `json:"priority"`
	SafeUntil     time.Time             `json:"safeUntil"`
}

// ListingCancelledEvent is emitted when a provider withdraws a listing.
type ListingCancelledEvent struct {
	ListingID   uuid.UUID `json:"listingId"`
	ProviderID  uuid.UUID `json:"providerId"`
	CancelledAt time.Time `json:"cancelledAt"`
	Reason      string    `json:"reason,omitempty"`
}

// ListingExpiredEvent records a listing crossing its safety window, with the
// unclaimed quantity written off as waste.
type ListingExpiredEvent struct {
	ListingID      uuid.UUID          `json:"listingId"`
	ProviderID     uuid.UUID          `json:"providerId"`
	ExpiredAt      time.Time          `json:"expiredAt"`
	WastedQuantity decimal.Decimal    `json:"wastedQuantity"`
	Unit           enums.QuantityUnit `json:"unit"`
}

// ListingCompletedEvent marks a listing whose active claims all finished.
type ListingCompletedEvent struct {
	ListingID       uuid.UUID          `json:"listingId"`
	ProviderID      uuid.UUID          `json:"providerId"`
	CompletedAt     time.Time          `json:"completedAt"`
	ClaimedQuantity decimal.Decimal    `json:"claimedQuantity"`
	Unit            enums.QuantityUnit `json:"unit"`
}

// ClaimCreatedEvent announces a receiver's new claim against a listing.
type ClaimCreatedEvent struct {
	ClaimID           uuid.UUID          `json:"claimId"`
	ListingID         uuid.UUID          `json:"listingId"`
	ReceiverID        uuid.UUID          `json:"receiverId"`
	RequestedQuantity decimal.Decimal    `json:"requestedQuantity"`
	Unit              enums.QuantityUnit `json:"unit"`
}

// ClaimApprovedEvent carries the approved quantity and pickup code so the
// notification layer can deliver the code to the receiver.
type ClaimApprovedEvent struct {
	ClaimID          uuid.UUID          `json:"claimId"`
	ListingID        uuid.UUID          `json:"listingId"`
	ReceiverID       uuid.UUID          `json:"receiverId"`
	ApprovedQuantity decimal.Decimal    `json:"approvedQuantity"`
	Unit             enums.QuantityUnit `json:"unit"`
	PickupCode       string             `json:"pickupCode"`
	PickupBy         time.Time          `json:"pickupBy"`
}

// ClaimConfirmedEvent records a successful pickup-code verification.
type ClaimConfirmedEvent struct {
	ClaimID    uuid.UUID `json:"claimId"`
	ListingID  uuid.UUID `json:"listingId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	PickupTime time.Time `json:"pickupTime"`
}

// ClaimCompletedEvent is the analytics trigger for impact accounting.
type ClaimCompletedEvent struct {
	ClaimID           uuid.UUID          `json:"claimId"`
	ListingID         uuid.UUID          `json:"listingId"`
	ReceiverID        uuid.UUID          `json:"receiverId"`
	DeliveredQuantity decimal.Decimal    `json:"deliveredQuantity"`
	Unit              enums.QuantityUnit `json:"unit"`
	CompletedAt       time.Time          `json:"completedAt"`
}

// ClaimRejectedEvent is emitted when a provider declines a pending claim.
type ClaimRejectedEvent struct {
	ClaimID    uuid.UUID `json:"claimId"`
	ListingID  uuid.UUID `json:"listingId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Reason     string    `json:"reason,omitempty"`
}

// ClaimCancelledEvent is emitted when a receiver or provider cancels an
// active claim, releasing its quantity back to the listing.
type ClaimCancelledEvent struct {
	ClaimID          uuid.UUID          `json:"claimId"`
	ListingID        uuid.UUID          `json:"listingId"`
	ReceiverID       uuid.UUID          `json:"receiverId"`
	ReleasedQuantity decimal.Decimal    `json:"releasedQuantity"`
	Unit             enums.QuantityUnit `json:"unit"`
	Reason           string             `json:"reason,omitempty"`
}
