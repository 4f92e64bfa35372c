package listings

import (
	"context"
	"time"

	"github.com/mealbridge/mealbridge-backend/internal/ledger"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	apperrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
)

// RecomputeStatus re-derives a live listing's status from its claim ledger.
// The repo must be bound to the caller's transaction. Terminal statuses never
// change here, and the passed listing is updated in place so callers see the
// new status.
func RecomputeStatus(ctx context.Context, repo Repository, listing *models.Listing) (enums.ListingStatus, error) {
	if listing.Status.IsTerminal() {
		return listing.Status, nil
	}

	claimed := ledger.ClaimedQuantity(listing.Claims)
	next := ledger.NextListingStatus(listing.TotalQuantity, claimed)
	if next == listing.Status {
		return next, nil
	}

	if err := repo.Update(ctx, listing.ID, map[string]any{"status": next}); err != nil {
		return listing.Status, apperrors.Wrap(apperrors.CodeInternal, err, "updating listing status")
	}
	listing.Status = next
	return next, nil
}

// SettleCompletion finalizes a listing after one of its claims completes.
// When no active claims remain the listing is closed out as completed, even
// with unclaimed quantity left; otherwise the status is recomputed from the
// ledger. It reports whether the listing transitioned to completed.
func SettleCompletion(ctx context.Context, repo Repository, listing *models.Listing, now time.Time) (bool, error) {
	if listing.Status.IsTerminal() {
		return false, nil
	}

	if ledger.HasActiveClaims(listing.Claims) {
		_, err := RecomputeStatus(ctx, repo, listing)
		return false, err
	}

	err := repo.Update(ctx, listing.ID, map[string]any{
		"status":       enums.ListingStatusCompleted,
		"completed_at": now,
	})
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, err, "completing listing")
	}
	listing.Status = enums.ListingStatusCompleted
	listing.CompletedAt = &now
	return true, nil
}
