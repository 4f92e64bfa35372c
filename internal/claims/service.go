package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealbridge/mealbridge-backend/internal/ledger"
	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/config"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	apperrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox/payloads"
)

// CreateClaimInput carries a receiver's request against a listing.
type CreateClaimInput struct {
	ListingID         uuid.UUID
	ReceiverID        uuid.UUID
	RequestedQuantity decimal.Decimal
	Notes             *string
}

// ApproveClaimInput is the provider's approval. A nil ApprovedQuantity
// approves the requested amount.
type ApproveClaimInput struct {
	ClaimID          uuid.UUID
	ProviderID       uuid.UUID
	ApprovedQuantity *decimal.Decimal
}

// RejectClaimInput declines a pending claim.
type RejectClaimInput struct {
	ClaimID    uuid.UUID
	ProviderID uuid.UUID
	Reason     string
}

// VerifyPickupInput carries the code presented at handoff.
type VerifyPickupInput struct {
	ClaimID    uuid.UUID
	ProviderID uuid.UUID
	Code       string
}

// CancelClaimInput cancels an active claim. Actor may be the receiver or
// the listing's provider.
type CancelClaimInput struct {
	ClaimID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

// Service drives the claim workflow from request through approval, pickup
// verification, and delivery completion.
type Service interface {
	Create(ctx context.Context, input CreateClaimInput) (*models.Claim, error)
	Approve(ctx context.Context, input ApproveClaimInput) (*models.Claim, error)
	Reject(ctx context.Context, input RejectClaimInput) (*models.Claim, error)
	VerifyPickupCode(ctx context.Context, input VerifyPickupInput) (*models.Claim, error)
	CompleteDelivery(ctx context.Context, claimID, providerID uuid.UUID) (*models.Claim, error)
	Cancel(ctx context.Context, input CancelClaimInput) (*models.Claim, error)
	Get(ctx context.Context, id, actorID uuid.UUID) (*models.Claim, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.Claim, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     Repository
	listings listings.Repository
	tx       txRunner
	outbox   outboxPublisher
	safety   config.SafetyConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	listingRepo listings.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	safety config.SafetyConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("claims repository required")
	}
	if listingRepo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		listings: listingRepo,
		tx:       tx,
		outbox:   outboxSvc,
		safety:   safety,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateClaimInput) (*models.Claim, error) {
	if input.ReceiverID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "receiver id is required")
	}
	if !input.RequestedQuantity.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "requested quantity must be positive")
	}

	claim := &models.Claim{
		ListingID:         input.ListingID,
		ReceiverID:        input.ReceiverID,
		RequestedQuantity: input.RequestedQuantity,
		Status:            enums.ClaimStatusPending,
		Notes:             input.Notes,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		listing, err := s.loadListingForUpdate(ctx, tx, input.ListingID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := s.ensureClaimable(listing, now); err != nil {
			return err
		}
		if listing.ProviderID == input.ReceiverID {
			return apperrors.New(apperrors.CodeForbidden, "providers cannot claim their own listing")
		}

		active, err := s.repo.WithTx(tx).HasActiveClaim(ctx, listing.ID, input.ReceiverID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "checking for active claim")
		}
		if active {
			return apperrors.New(apperrors.CodeDuplicateClaim, "receiver already has an active claim on this listing")
		}

		summary := ledger.Summarize(*listing)
		if input.RequestedQuantity.GreaterThan(summary.RemainingQuantity) {
			return insufficientQuantity(summary.RemainingQuantity, listing.Unit)
		}

		if err := s.repo.WithTx(tx).Create(ctx, claim); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating claim")
		}

		listing.Claims = append(listing.Claims, *claim)
		if _, err := listings.RecomputeStatus(ctx, s.listings.WithTx(tx), listing); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimCreated,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: input.ReceiverID, Role: "receiver"},
			Data: payloads.ClaimCreatedEvent{
				ClaimID:           claim.ID,
				ListingID:         listing.ID,
				ReceiverID:        input.ReceiverID,
				RequestedQuantity: input.RequestedQuantity,
				Unit:              listing.Unit,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithClaimID(ctx, claim.ID.String()), "claim created")
	}
	return claim, nil
}

func (s *service) Approve(ctx context.Context, input ApproveClaimInput) (*models.Claim, error) {
	var approved *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claim, err := s.loadClaimForUpdate(ctx, tx, input.ClaimID)
		if err != nil {
			return err
		}
		if claim.Status != enums.ClaimStatusPending {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"claim is %s and can no longer be approved", claim.Status)
		}

		listing, err := s.loadListingForUpdate(ctx, tx, claim.ListingID)
		if err != nil {
			return err
		}
		if listing.ProviderID != input.ProviderID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}
		now := s.now().UTC()
		if err := s.ensureClaimable(listing, now); err != nil {
			return err
		}

		quantity := claim.RequestedQuantity
		if input.ApprovedQuantity != nil {
			quantity = *input.ApprovedQuantity
		}
		if !quantity.IsPositive() {
			return apperrors.New(apperrors.CodeValidation, "approved quantity must be positive")
		}

		summary := ledger.Summarize(*listing)
		if quantity.GreaterThan(summary.RemainingQuantity) {
			return insufficientQuantity(summary.RemainingQuantity, listing.Unit)
		}

		code, err := generatePickupCode(s.safety.PickupCodeDigits)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "generating pickup code")
		}
		pickupBy := listing.SafeUntil
		if windowEnd := now.Add(s.safety.PickupWindow); windowEnd.Before(pickupBy) {
			pickupBy = windowEnd
		}

		if err := s.repo.WithTx(tx).Update(ctx, claim.ID, map[string]any{
			"status":            enums.ClaimStatusApproved,
			"approved_quantity": quantity,
			"pickup_code":       code,
		}); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "approving claim")
		}

		claim.Status = enums.ClaimStatusApproved
		claim.ApprovedQuantity = &quantity
		claim.PickupCode = &code

		applyClaim(listing, *claim)
		if _, err := listings.RecomputeStatus(ctx, s.listings.WithTx(tx), listing); err != nil {
			return err
		}

		approved = claim
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimApproved,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProviderID, Role: "provider"},
			Data: payloads.ClaimApprovedEvent{
				ClaimID:          claim.ID,
				ListingID:        listing.ID,
				ReceiverID:       claim.ReceiverID,
				ApprovedQuantity: quantity,
				Unit:             listing.Unit,
				PickupCode:       code,
				PickupBy:         pickupBy,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *service) Reject(ctx context.Context, input RejectClaimInput) (*models.Claim, error) {
	var rejected *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claim, err := s.loadClaimForUpdate(ctx, tx, input.ClaimID)
		if err != nil {
			return err
		}
		if claim.Status != enums.ClaimStatusPending {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"claim is %s and can no longer be rejected", claim.Status)
		}

		listing, err := s.loadListingForUpdate(ctx, tx, claim.ListingID)
		if err != nil {
			return err
		}
		if listing.ProviderID != input.ProviderID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}

		updates := map[string]any{"status": enums.ClaimStatusRejected}
		if input.Reason != "" {
			updates["cancel_reason"] = input.Reason
		}
		if err := s.repo.WithTx(tx).Update(ctx, claim.ID, updates); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "rejecting claim")
		}
		claim.Status = enums.ClaimStatusRejected
		if input.Reason != "" {
			claim.CancelReason = &input.Reason
		}

		rejected = claim
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimRejected,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProviderID, Role: "provider"},
			Data: payloads.ClaimRejectedEvent{
				ClaimID:    claim.ID,
				ListingID:  listing.ID,
				ReceiverID: claim.ReceiverID,
				Reason:     input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *service) VerifyPickupCode(ctx context.Context, input VerifyPickupInput) (*models.Claim, error) {
	if input.Code == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "pickup code is required")
	}

	var confirmed *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claim, err := s.loadClaimForUpdate(ctx, tx, input.ClaimID)
		if err != nil {
			return err
		}
		switch claim.Status {
		case enums.ClaimStatusApproved:
		case enums.ClaimStatusConfirmed:
			return apperrors.New(apperrors.CodeStateConflict, "pickup has already been verified")
		default:
			return apperrors.Newf(apperrors.CodeStateConflict,
				"claim is %s and cannot be verified", claim.Status)
		}

		listing, err := s.loadListingForUpdate(ctx, tx, claim.ListingID)
		if err != nil {
			return err
		}
		if listing.ProviderID != input.ProviderID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}

		if claim.PickupCode == nil || !pickupCodeMatches(*claim.PickupCode, input.Code) {
			return apperrors.New(apperrors.CodeInvalidPickupCode, "invalid pickup code")
		}

		now := s.now().UTC()
		if err := s.repo.WithTx(tx).Update(ctx, claim.ID, map[string]any{
			"status":      enums.ClaimStatusConfirmed,
			"pickup_code": nil,
			"pickup_time": now,
		}); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "confirming pickup")
		}
		claim.Status = enums.ClaimStatusConfirmed
		claim.PickupCode = nil
		claim.PickupTime = &now

		confirmed = claim
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimConfirmed,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProviderID, Role: "provider"},
			Data: payloads.ClaimConfirmedEvent{
				ClaimID:    claim.ID,
				ListingID:  listing.ID,
				ReceiverID: claim.ReceiverID,
				PickupTime: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (s *service) CompleteDelivery(ctx context.Context, claimID, providerID uuid.UUID) (*models.Claim, error) {
	var completed *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claim, err := s.loadClaimForUpdate(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if claim.Status != enums.ClaimStatusConfirmed {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"claim is %s; only confirmed pickups can complete", claim.Status)
		}

		listing, err := s.loadListingForUpdate(ctx, tx, claim.ListingID)
		if err != nil {
			return err
		}
		if listing.ProviderID != providerID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}

		now := s.now().UTC()
		if err := s.repo.WithTx(tx).Update(ctx, claim.ID, map[string]any{
			"status":             enums.ClaimStatusCompleted,
			"actual_pickup_time": now,
		}); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "completing claim")
		}
		claim.Status = enums.ClaimStatusCompleted
		claim.ActualPickupTime = &now

		applyClaim(listing, *claim)
		listingCompleted, err := listings.SettleCompletion(ctx, s.listings.WithTx(tx), listing, now)
		if err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimCompleted,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: providerID, Role: "provider"},
			Data: payloads.ClaimCompletedEvent{
				ClaimID:           claim.ID,
				ListingID:         listing.ID,
				ReceiverID:        claim.ReceiverID,
				DeliveredQuantity: claim.LedgerQuantity(),
				Unit:              listing.Unit,
				CompletedAt:       now,
			},
		}); err != nil {
			return err
		}

		if listingCompleted {
			summary := ledger.Summarize(*listing)
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventListingCompleted,
				AggregateType: enums.AggregateListing,
				AggregateID:   listing.ID,
				Data: payloads.ListingCompletedEvent{
					ListingID:       listing.ID,
					ProviderID:      listing.ProviderID,
					CompletedAt:     now,
					ClaimedQuantity: summary.ClaimedQuantity,
					Unit:            listing.Unit,
				},
			}); err != nil {
				return err
			}
		}

		completed = claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *service) Cancel(ctx context.Context, input CancelClaimInput) (*models.Claim, error) {
	var cancelled *models.Claim
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claim, err := s.loadClaimForUpdate(ctx, tx, input.ClaimID)
		if err != nil {
			return err
		}
		if claim.Status != enums.ClaimStatusPending && claim.Status != enums.ClaimStatusApproved {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"claim is %s and can no longer be cancelled", claim.Status)
		}

		listing, err := s.loadListingForUpdate(ctx, tx, claim.ListingID)
		if err != nil {
			return err
		}
		if input.ActorID != claim.ReceiverID && input.ActorID != listing.ProviderID {
			return apperrors.New(apperrors.CodeForbidden, "only the receiver or the provider may cancel this claim")
		}
		if listing.Status.IsTerminal() {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"listing is %s; its claims are settled", listing.Status)
		}

		released := decimal.Zero
		if claim.Status.CountsTowardLedger() {
			released = claim.LedgerQuantity()
		}

		updates := map[string]any{
			"status":      enums.ClaimStatusCancelled,
			"pickup_code": nil,
		}
		if input.Reason != "" {
			updates["cancel_reason"] = input.Reason
		}
		if err := s.repo.WithTx(tx).Update(ctx, claim.ID, updates); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "cancelling claim")
		}
		claim.Status = enums.ClaimStatusCancelled
		claim.PickupCode = nil
		if input.Reason != "" {
			claim.CancelReason = &input.Reason
		}

		applyClaim(listing, *claim)
		if _, err := listings.RecomputeStatus(ctx, s.listings.WithTx(tx), listing); err != nil {
			return err
		}

		cancelled = claim
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClaimCancelled,
			AggregateType: enums.AggregateClaim,
			AggregateID:   claim.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			Data: payloads.ClaimCancelledEvent{
				ClaimID:          claim.ID,
				ListingID:        listing.ID,
				ReceiverID:       claim.ReceiverID,
				ReleasedQuantity: released,
				Unit:             listing.Unit,
				Reason:           input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Get loads a claim for its receiver or the listing's provider. Anyone else
// gets forbidden, never the claim.
func (s *service) Get(ctx context.Context, id, actorID uuid.UUID) (*models.Claim, error) {
	claim, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "claim not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading claim")
	}
	if claim.ReceiverID != actorID {
		listing, err := s.listings.FindByID(ctx, claim.ListingID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading listing")
		}
		if listing.ProviderID != actorID {
			return nil, apperrors.New(apperrors.CodeForbidden, "claim belongs to another receiver")
		}
	}
	return claim, nil
}

func (s *service) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.Claim, error) {
	rows, err := s.repo.ListByReceiver(ctx, receiverID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing claims")
	}
	return rows, nil
}

func (s *service) loadClaimForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Claim, error) {
	claim, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "claim not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading claim")
	}
	return claim, nil
}

func (s *service) loadListingForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.listings.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "listing not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading listing")
	}
	return listing, nil
}

// ensureClaimable enforces the claimability rule shared by claim creation
// and approval: the listing must still be live and inside its safety window.
// The safety check is lazy so an overdue listing is refused even when the
// sweeper has not settled it yet.
func (s *service) ensureClaimable(listing *models.Listing, now time.Time) error {
	switch listing.Status {
	case enums.ListingStatusExpired:
		return apperrors.New(apperrors.CodeExpired, "listing is past its safety window")
	case enums.ListingStatusCancelled, enums.ListingStatusCompleted:
		return apperrors.Newf(apperrors.CodeStateConflict, "listing is %s", listing.Status)
	case enums.ListingStatusFullyClaimed:
		return apperrors.New(apperrors.CodeStateConflict, "listing is fully claimed")
	}
	if !now.Before(listing.SafeUntil) {
		return apperrors.New(apperrors.CodeExpired, "listing is past its safety window")
	}
	return nil
}

// applyClaim refreshes the in-memory copy of a claim inside the listing's
// preloaded slice so ledger math sees the update made in this transaction.
func applyClaim(listing *models.Listing, claim models.Claim) {
	for i := range listing.Claims {
		if listing.Claims[i].ID == claim.ID {
			listing.Claims[i] = claim
			return
		}
	}
	listing.Claims = append(listing.Claims, claim)
}

func insufficientQuantity(remaining decimal.Decimal, unit enums.QuantityUnit) error {
	return apperrors.Newf(apperrors.CodeInsufficientQuantity,
		"only %s %s available", remaining.String(), unit).
		WithDetails(map[string]any{
			"remainingQuantity": remaining.String(),
			"unit":              string(unit),
		})
}
