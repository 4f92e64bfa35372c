package claims

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Repository manages persistence for claims.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Claim, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.Claim, error)
	HasActiveClaim(ctx context.Context, listingID, receiverID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a claims repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Claim, error) {
	var rows []models.Claim
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]models.Claim, error) {
	var rows []models.Claim
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) HasActiveClaim(ctx context.Context, listingID, receiverID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("listing_id = ? AND receiver_id = ?", listingID, receiverID).
		Where("status IN ?", []enums.ClaimStatus{
			enums.ClaimStatusPending,
			enums.ClaimStatusApproved,
			enums.ClaimStatusConfirmed,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ?", id).
		Updates(updates).Error
}
