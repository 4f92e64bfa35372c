package analytics

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealbridge/mealbridge-backend/internal/impact"
	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Repository persists the analytics counters kept outside core transactions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("db handle required")
	}
	return &Repository{db: db}, nil
}

// IncrementListingClaimCount bumps the per-listing claim counter. A missing
// listing is not an error; the row may already be pruned.
func (r *Repository) IncrementListingClaimCount(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		UpdateColumn("claim_count", gorm.Expr("claim_count + 1")).Error
}

// RecordClaimCreated increments the receiver's created-claims counter,
// creating the stats row on first contact.
func (r *Repository) RecordClaimCreated(ctx context.Context, receiverID uuid.UUID) error {
	stats := models.ReceiverStats{
		ReceiverID:    receiverID,
		ClaimsCreated: 1,
		Level:         1,
		CO2SavedKg:    decimal.Zero,
		WaterSavedL:   decimal.Zero,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "receiver_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"claims_created": gorm.Expr("receiver_stats.claims_created + 1"),
			}),
		}).
		Create(&stats).Error
}

// RecordClaimCompleted folds a delivered quantity into the receiver's impact
// totals and recomputes points and level. Runs under a row lock because the
// level depends on the accumulated points.
func (r *Repository) RecordClaimCompleted(ctx context.Context, receiverID uuid.UUID, delivered decimal.Decimal, unit enums.QuantityUnit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats models.ReceiverStats
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("receiver_id = ?", receiverID).
			First(&stats).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stats = models.ReceiverStats{
				ReceiverID:  receiverID,
				Level:       1,
				CO2SavedKg:  decimal.Zero,
				WaterSavedL: decimal.Zero,
			}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		summary := impact.Calculate(delivered, unit)
		points := stats.Points + impact.PointsPerCompletedClaim

		return tx.Model(&models.ReceiverStats{}).
			Where("receiver_id = ?", receiverID).
			Updates(map[string]any{
				"claims_completed": gorm.Expr("claims_completed + 1"),
				"points":           points,
				"level":            impact.LevelForPoints(points),
				"co2_saved_kg":     stats.CO2SavedKg.Add(summary.CO2SavedKg),
				"water_saved_l":    stats.WaterSavedL.Add(summary.WaterSavedL),
				"people_served":    gorm.Expr("people_served + ?", summary.PeopleServed),
			}).Error
	})
}
