package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Response shapes are built field by field from the domain records so the
// storage models never hit the wire. Listing reads expose quantity totals
// instead of the claim rows they were derived from, and claim responses
// carry the pickup code only on the approval the provider just issued.

type listingResponse struct {
	ID                uuid.UUID             `json:"id"`
	ProviderID        uuid.UUID             `json:"provider_id"`
	Title             string                `json:"title"`
	Description       *string               `json:"description,omitempty"`
	TotalQuantity     decimal.Decimal       `json:"total_quantity"`
	ClaimedQuantity   decimal.Decimal       `json:"claimed_quantity"`
	RemainingQuantity decimal.Decimal       `json:"remaining_quantity"`
	WastedQuantity    decimal.Decimal       `json:"wasted_quantity"`
	Unit              enums.QuantityUnit    `json:"unit"`
	Freshness         enums.FreshnessLevel  `json:"freshness"`
	Priority          enums.ListingPriority `json:"priority"`
	Status            enums.ListingStatus   `json:"status"`
	SafeUntil         time.Time             `json:"safe_until"`
	AvailableFrom     time.Time             `json:"available_from"`
	AvailableUntil    time.Time             `json:"available_until"`
	ClaimCount        int                   `json:"claim_count"`
	ExpiredAt         *time.Time            `json:"expired_at,omitempty"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

type listingPageResponse struct {
	Listings   []listingResponse `json:"listings"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type claimResponse struct {
	ID                uuid.UUID         `json:"id"`
	ListingID         uuid.UUID         `json:"listing_id"`
	RequestedQuantity decimal.Decimal   `json:"requested_quantity"`
	ApprovedQuantity  *decimal.Decimal  `json:"approved_quantity,omitempty"`
	Status            enums.ClaimStatus `json:"status"`
	Notes             *string           `json:"notes,omitempty"`
	PickupCode        *string           `json:"pickup_code,omitempty"`
	PickupTime        *time.Time        `json:"pickup_time,omitempty"`
	ActualPickupTime  *time.Time        `json:"actual_pickup_time,omitempty"`
	CancelReason      *string           `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func newListingResponse(view listings.ListingView) listingResponse {
	listing := view.Listing
	return listingResponse{
		ID:                listing.ID,
		ProviderID:        listing.ProviderID,
		Title:             listing.Title,
		Description:       listing.Description,
		TotalQuantity:     view.Summary.TotalQuantity,
		ClaimedQuantity:   view.Summary.ClaimedQuantity,
		RemainingQuantity: view.Summary.RemainingQuantity,
		WastedQuantity:    view.Summary.WastedQuantity,
		Unit:              listing.Unit,
		Freshness:         listing.Freshness,
		Priority:          listing.Priority,
		Status:            listing.Status,
		SafeUntil:         listing.SafeUntil,
		AvailableFrom:     listing.AvailableFrom,
		AvailableUntil:    listing.AvailableUntil,
		ClaimCount:        listing.ClaimCount,
		ExpiredAt:         listing.ExpiredAt,
		CompletedAt:       listing.CompletedAt,
		CancelledAt:       listing.CancelledAt,
		CreatedAt:         listing.CreatedAt,
		UpdatedAt:         listing.UpdatedAt,
	}
}

func newListingPageResponse(result *listings.ListResult) listingPageResponse {
	page := listingPageResponse{
		Listings:   make([]listingResponse, 0, len(result.Listings)),
		NextCursor: result.NextCursor,
	}
	for _, view := range result.Listings {
		page.Listings = append(page.Listings, newListingResponse(view))
	}
	return page
}

func newClaimResponse(claim *models.Claim) claimResponse {
	return claimResponse{
		ID:                claim.ID,
		ListingID:         claim.ListingID,
		RequestedQuantity: claim.RequestedQuantity,
		ApprovedQuantity:  claim.ApprovedQuantity,
		Status:            claim.Status,
		Notes:             claim.Notes,
		PickupTime:        claim.PickupTime,
		ActualPickupTime:  claim.ActualPickupTime,
		CancelReason:      claim.CancelReason,
		CreatedAt:         claim.CreatedAt,
		UpdatedAt:         claim.UpdatedAt,
	}
}

// newApprovedClaimResponse is the one place the pickup code goes over the
// wire: the approval response the provider hands to the receiver.
func newApprovedClaimResponse(claim *models.Claim) claimResponse {
	resp := newClaimResponse(claim)
	resp.PickupCode = claim.PickupCode
	return resp
}

func newClaimListResponse(rows []models.Claim) []claimResponse {
	page := make([]claimResponse, 0, len(rows))
	for i := range rows {
		page = append(page, newClaimResponse(&rows[i]))
	}
	return page
}
