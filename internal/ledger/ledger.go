package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Summary is the derived quantity view of a listing. It is computed purely
// from the listing row and its claims; calling Summarize twice with the same
// inputs yields the same output.
type Summary struct {
	TotalQuantity     decimal.Decimal
	ClaimedQuantity   decimal.Decimal
	RemainingQuantity decimal.Decimal
	WastedQuantity    decimal.Decimal
	CompletionRate    decimal.Decimal
	Unit              enums.QuantityUnit
}

// ClaimedQuantity sums the ledger quantity of every claim whose status counts
// toward the listing ledger: the approved amount when the provider has set
// one, the requested amount otherwise.
func ClaimedQuantity(claims []models.Claim) decimal.Decimal {
	total := decimal.Zero
	for _, claim := range claims {
		if !claim.Status.CountsTowardLedger() {
			continue
		}
		total = total.Add(claim.LedgerQuantity())
	}
	return total
}

// RemainingQuantity returns how much of the total is still unclaimed,
// floored at zero.
func RemainingQuantity(total, claimed decimal.Decimal) decimal.Decimal {
	remaining := total.Sub(claimed)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Summarize derives the full quantity view for a listing. Wasted quantity is
// nonzero only for expired listings: surplus on a live or completed listing
// is not waste.
func Summarize(listing models.Listing) Summary {
	claimed := ClaimedQuantity(listing.Claims)
	remaining := RemainingQuantity(listing.TotalQuantity, claimed)

	summary := Summary{
		TotalQuantity:     listing.TotalQuantity,
		ClaimedQuantity:   claimed,
		RemainingQuantity: remaining,
		WastedQuantity:    decimal.Zero,
		CompletionRate:    decimal.Zero,
		Unit:              listing.Unit,
	}

	if listing.TotalQuantity.IsPositive() {
		summary.CompletionRate = claimed.Div(listing.TotalQuantity)
	}
	if listing.Status == enums.ListingStatusExpired {
		summary.WastedQuantity = remaining
	}
	return summary
}

// HasActiveClaims reports whether any claim still occupies an active slot
// (pending, approved, or confirmed).
func HasActiveClaims(claims []models.Claim) bool {
	for _, claim := range claims {
		if claim.Status.IsActive() {
			return true
		}
	}
	return false
}

// NextListingStatus derives the non-terminal listing status from the claimed
// quantity: fully claimed at or above the total, partially claimed above
// zero, available otherwise. Terminal statuses are never produced here.
func NextListingStatus(total, claimed decimal.Decimal) enums.ListingStatus {
	switch {
	case claimed.GreaterThanOrEqual(total) && total.IsPositive():
		return enums.ListingStatusFullyClaimed
	case claimed.IsPositive():
		return enums.ListingStatusPartiallyClaimed
	default:
		return enums.ListingStatusAvailable
	}
}
