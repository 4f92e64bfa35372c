package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealbridge/mealbridge-backend/internal/ledger"
	"github.com/mealbridge/mealbridge-backend/pkg/config"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	apperrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ExpirySweeper expires overdue listings ahead of read operations.
type ExpirySweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// CreateListingInput carries the provider-supplied fields for a new listing.
type CreateListingInput struct {
	ProviderID    uuid.UUID
	Title         string
	Description   *string
	TotalQuantity decimal.Decimal
	Unit          enums.QuantityUnit
	Freshness     enums.FreshnessLevel
	AvailableFrom *time.Time
}

// ListParams carries the caller-facing filters for listing pages.
type ListParams struct {
	ProviderID *uuid.UUID
	Statuses   []enums.ListingStatus
	Limit      int
	Cursor     string
}

// ListingView pairs a listing row with its derived quantity summary.
type ListingView struct {
	Listing models.Listing
	Summary ledger.Summary
}

// ListResult is one page of listing views.
type ListResult struct {
	Listings   []ListingView
	NextCursor string
}

// Service owns the listing lifecycle: creation with safety-window derivation,
// reads behind the expiry sweep, cancellation, and deletion.
type Service interface {
	Create(ctx context.Context, input CreateListingInput) (*ListingView, error)
	Get(ctx context.Context, id uuid.UUID) (*ListingView, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Cancel(ctx context.Context, id, providerID uuid.UUID, reason string) (*ListingView, error)
	Delete(ctx context.Context, id, providerID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	sweeper ExpirySweeper
	safety  config.SafetyConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the listing service. The sweeper may be nil on pure
// write paths.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	sweeper ExpirySweeper,
	safety config.SafetyConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		sweeper: sweeper,
		safety:  safety,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateListingInput) (*ListingView, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	availableFrom := now
	if input.AvailableFrom != nil && input.AvailableFrom.After(now) {
		availableFrom = input.AvailableFrom.UTC()
	}

	safeUntil := now.Add(s.safety.WindowFor(input.Freshness))
	availableUntil := safeUntil
	if pickupEnd := availableFrom.Add(s.safety.PickupWindow); pickupEnd.Before(availableUntil) {
		availableUntil = pickupEnd
	}

	listing := &models.Listing{
		ProviderID:     input.ProviderID,
		Title:          input.Title,
		Description:    input.Description,
		TotalQuantity:  input.TotalQuantity,
		Unit:           input.Unit,
		Freshness:      input.Freshness,
		Priority:       s.derivePriority(input.Freshness, safeUntil, now),
		Status:         enums.ListingStatusAvailable,
		SafeUntil:      safeUntil,
		AvailableFrom:  availableFrom,
		AvailableUntil: availableUntil,
		WastedQuantity: decimal.Zero,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, listing); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating listing")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingCreated,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: input.ProviderID, Role: "provider"},
			Data: payloads.ListingCreatedEvent{
				ListingID:     listing.ID,
				ProviderID:    listing.ProviderID,
				Title:         listing.Title,
				TotalQuantity: listing.TotalQuantity,
				Unit:          listing.Unit,
				Freshness:     listing.Freshness,
				Priority:      listing.Priority,
				SafeUntil:     listing.SafeUntil,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithListingID(ctx, listing.ID.String()), "listing created")
	}
	view := ListingView{Listing: *listing, Summary: ledger.Summarize(*listing)}
	return &view, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ListingView, error) {
	s.sweepAhead(ctx)

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "listing not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading listing")
	}

	// View counting is best effort and never fails the read.
	if err := s.repo.Update(ctx, id, map[string]any{
		"view_count": gorm.Expr("view_count + 1"),
	}); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithListingID(ctx, id.String()), "incrementing view count: "+err.Error())
	}

	view := ListingView{Listing: *listing, Summary: ledger.Summarize(*listing)}
	return &view, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	s.sweepAhead(ctx)

	for _, status := range params.Statuses {
		if !status.IsValid() {
			return nil, apperrors.Newf(apperrors.CodeValidation, "invalid listing status %q", status)
		}
	}
	cursor, err := parseListCursor(params.Cursor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, ListQuery{
		ProviderID: params.ProviderID,
		Statuses:   params.Statuses,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing listings")
	}

	result := &ListResult{Listings: make([]ListingView, 0, len(rows))}
	for _, row := range rows {
		result.Listings = append(result.Listings, ListingView{
			Listing: row,
			Summary: ledger.Summarize(row),
		})
	}
	if next != nil {
		result.NextCursor = encodeListCursor(*next)
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, id, providerID uuid.UUID, reason string) (*ListingView, error) {
	var updated models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "listing not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading listing")
		}
		if listing.ProviderID != providerID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}
		if listing.Status.IsTerminal() {
			return apperrors.Newf(apperrors.CodeStateConflict,
				"listing is already %s", listing.Status)
		}

		now := s.now().UTC()
		cancelReason := "listing cancelled"
		if reason != "" {
			cancelReason = reason
		}
		if err := repo.CancelActiveClaims(ctx, id, cancelReason); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "cancelling active claims")
		}
		if err := repo.Update(ctx, id, map[string]any{
			"status":       enums.ListingStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "cancelling listing")
		}

		listing.Status = enums.ListingStatusCancelled
		listing.CancelledAt = &now
		updated = *listing

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingCancelled,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: providerID, Role: "provider"},
			Data: payloads.ListingCancelledEvent{
				ListingID:   listing.ID,
				ProviderID:  listing.ProviderID,
				CancelledAt: now,
				Reason:      reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	view := ListingView{Listing: updated, Summary: ledger.Summarize(updated)}
	return &view, nil
}

func (s *service) Delete(ctx context.Context, id, providerID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "listing not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading listing")
		}
		if listing.ProviderID != providerID {
			return apperrors.New(apperrors.CodeForbidden, "listing belongs to another provider")
		}
		for _, claim := range listing.Claims {
			if claim.Status.BlocksListingDeletion() {
				return apperrors.Newf(apperrors.CodeConflict,
					"listing has a %s claim and cannot be deleted", claim.Status)
			}
		}
		if err := repo.Delete(ctx, id); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "deleting listing")
		}
		return nil
	})
}

func (s *service) sweepAhead(ctx context.Context) {
	if s.sweeper == nil {
		return
	}
	if _, err := s.sweeper.Sweep(ctx); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "expiry sweep ahead of read failed: "+err.Error())
	}
}

func (s *service) derivePriority(freshness enums.FreshnessLevel, safeUntil, now time.Time) enums.ListingPriority {
	remaining := safeUntil.Sub(now)
	switch {
	case remaining <= s.safety.UrgentThreshold:
		return enums.PriorityUrgent
	case remaining <= s.safety.HighThreshold || freshness == enums.FreshnessFreshlyCooked:
		return enums.PriorityHigh
	default:
		return enums.PriorityMedium
	}
}

func validateCreateInput(input CreateListingInput) error {
	if input.ProviderID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "provider id is required")
	}
	if input.Title == "" {
		return apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if !input.TotalQuantity.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "total quantity must be positive")
	}
	if !input.Unit.IsValid() {
		return apperrors.Newf(apperrors.CodeValidation, "invalid quantity unit %q", input.Unit)
	}
	if !input.Freshness.IsValid() {
		return apperrors.Newf(apperrors.CodeValidation, "invalid freshness level %q", input.Freshness)
	}
	return nil
}
