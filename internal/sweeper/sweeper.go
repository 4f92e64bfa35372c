package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mealbridge/mealbridge-backend/internal/ledger"
	"github.com/mealbridge/mealbridge-backend/internal/listings"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
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

// Service expires listings whose safety window has passed. Each listing is
// settled in its own transaction so one failure never blocks the rest, and
// the re-check under lock makes concurrent sweeps idempotent.
type Service struct {
	repo   listings.Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(repo listings.Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// Sweep expires every overdue listing and returns how many transitioned.
// Per-listing failures are collected and returned together after the full
// pass; they never abort the remaining candidates.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	candidates, err := s.repo.FindSweepableBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("finding sweepable listings: %w", err)
	}

	var (
		expired int
		errs    error
	)
	for _, candidate := range candidates {
		swept, err := s.sweepOne(ctx, candidate.ID, now)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithListingID(ctx, candidate.ID.String()), "sweeping listing", err)
			}
			errs = multierr.Append(errs, fmt.Errorf("listing %s: %w", candidate.ID, err))
			continue
		}
		if swept {
			expired++
		}
	}
	return expired, errs
}

// sweepOne transitions a single listing to expired. It reports false without
// error when another sweep already settled the listing.
func (s *Service) sweepOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	swept := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !listing.Status.IsSweepable() || !listing.SafeUntil.Before(now) {
			return nil
		}

		claimed := ledger.ClaimedQuantity(listing.Claims)
		wasted := ledger.RemainingQuantity(listing.TotalQuantity, claimed)

		if err := repo.Update(ctx, id, map[string]any{
			"status":          enums.ListingStatusExpired,
			"wasted_quantity": wasted,
			"expired_at":      now,
		}); err != nil {
			return err
		}

		swept = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingExpired,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Data: payloads.ListingExpiredEvent{
				ListingID:      listing.ID,
				ProviderID:     listing.ProviderID,
				ExpiredAt:      now,
				WastedQuantity: wasted,
				Unit:           listing.Unit,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return swept, nil
}
