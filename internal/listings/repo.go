package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	"github.com/mealbridge/mealbridge-backend/pkg/pagination"
)

// Repository manages persistence for listings and their claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, params ListQuery) ([]models.Listing, *ListCursor, error)
	FindSweepableBefore(ctx context.Context, cutoff time.Time) ([]models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CancelActiveClaims(ctx context.Context, listingID uuid.UUID, reason string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListQuery carries the repository-level filters for listing pages.
type ListQuery struct {
	ProviderID *uuid.UUID
	Statuses   []enums.ListingStatus
	Limit      int
	Cursor     *ListCursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Claims").
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDForUpdate locks the listing row for the duration of the enclosing
// transaction so concurrent approvals cannot both pass the remaining-quantity
// check. Claims are loaded after the lock is held.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	var claims []models.Claim
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", id).
		Order("created_at ASC").
		Find(&claims).Error; err != nil {
		return nil, err
	}
	listing.Claims = claims
	return &listing, nil
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.Listing, *ListCursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).Preload("Claims")

	if params.ProviderID != nil {
		query = query.Where("provider_id = ?", *params.ProviderID)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	}
	if cursor := params.Cursor; cursor != nil {
		// The boundary must mirror the full sort key or pages skip rows.
		rank := cursor.Priority.Rank()
		query = query.Where(
			priorityRankExpr+" > ?"+
				" OR ("+priorityRankExpr+" = ? AND safe_until > ?)"+
				" OR ("+priorityRankExpr+" = ? AND safe_until = ? AND (created_at, id) < (?, ?))",
			rank,
			rank, cursor.SafeUntil,
			rank, cursor.SafeUntil, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.LimitWithBuffer(params.Limit)
	var rows []models.Listing
	err := query.
		Order(priorityRankExpr + " ASC").
		Order("safe_until ASC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= pageSize {
		return rows, nil, nil
	}
	rows = rows[:pageSize]
	last := rows[len(rows)-1]
	return rows, &ListCursor{
		Priority:  last.Priority,
		SafeUntil: last.SafeUntil,
		CreatedAt: last.CreatedAt,
		ID:        last.ID,
	}, nil
}

const priorityRankExpr = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 ELSE 2 END"

func (r *repository) FindSweepableBefore(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.ListingStatus{
			enums.ListingStatusAvailable,
			enums.ListingStatusPartiallyClaimed,
		}).
		Where("safe_until < ?", cutoff).
		Order("safe_until ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CancelActiveClaims settles every live claim on a listing in one statement.
// Used when the provider withdraws the whole listing.
func (r *repository) CancelActiveClaims(ctx context.Context, listingID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("listing_id = ?", listingID).
		Where("status IN ?", []enums.ClaimStatus{
			enums.ClaimStatusPending,
			enums.ClaimStatusApproved,
			enums.ClaimStatusConfirmed,
		}).
		Updates(map[string]any{
			"status":        enums.ClaimStatusCancelled,
			"cancel_reason": reason,
			"pickup_code":   nil,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", id).
		Delete(&models.Claim{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Listing{}).Error
}
