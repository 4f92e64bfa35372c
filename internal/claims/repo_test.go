package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealbridge/mealbridge-backend/pkg/db/models"
	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

func setupClaimsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	claims := `
CREATE TABLE IF NOT EXISTS claims (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  receiver_id TEXT NOT NULL,
  requested_quantity NUMERIC NOT NULL,
  approved_quantity NUMERIC,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  pickup_code TEXT,
  pickup_time DATETIME,
  actual_pickup_time DATETIME,
  cancel_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(claims).Error)
	return db
}

func insertClaim(t *testing.T, db *gorm.DB, listingID, receiverID uuid.UUID, status enums.ClaimStatus, created time.Time) *models.Claim {
	t.Helper()

	claim := &models.Claim{
		ID:                uuid.New(),
		ListingID:         listingID,
		ReceiverID:        receiverID,
		RequestedQuantity: decimal.NewFromInt(2),
		Status:            status,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
	require.NoError(t, db.Create(claim).Error)
	return claim
}

func TestRepositoryHasActiveClaim(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	receiverID := uuid.New()
	now := time.Now().UTC()

	active, err := repo.HasActiveClaim(context.Background(), listingID, receiverID)
	require.NoError(t, err)
	assert.False(t, active)

	claim := insertClaim(t, db, listingID, receiverID, enums.ClaimStatusPending, now)

	active, err = repo.HasActiveClaim(context.Background(), listingID, receiverID)
	require.NoError(t, err)
	assert.True(t, active)

	other, err := repo.HasActiveClaim(context.Background(), listingID, uuid.New())
	require.NoError(t, err)
	assert.False(t, other)

	require.NoError(t, repo.Update(context.Background(), claim.ID, map[string]any{
		"status": enums.ClaimStatusCancelled,
	}))

	active, err = repo.HasActiveClaim(context.Background(), listingID, receiverID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRepositoryListByReceiverNewestFirst(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)

	receiverID := uuid.New()
	now := time.Now().UTC()
	older := insertClaim(t, db, uuid.New(), receiverID, enums.ClaimStatusCompleted, now.Add(-time.Hour))
	newer := insertClaim(t, db, uuid.New(), receiverID, enums.ClaimStatusPending, now)
	insertClaim(t, db, uuid.New(), uuid.New(), enums.ClaimStatusPending, now)

	rows, err := repo.ListByReceiver(context.Background(), receiverID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestRepositoryListByListingOldestFirst(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)

	listingID := uuid.New()
	now := time.Now().UTC()
	first := insertClaim(t, db, listingID, uuid.New(), enums.ClaimStatusApproved, now.Add(-time.Hour))
	second := insertClaim(t, db, listingID, uuid.New(), enums.ClaimStatusPending, now)

	rows, err := repo.ListByListing(context.Background(), listingID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
}

func TestRepositoryUpdateClearsPickupCode(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	claim := insertClaim(t, db, uuid.New(), uuid.New(), enums.ClaimStatusApproved, now)

	require.NoError(t, repo.Update(context.Background(), claim.ID, map[string]any{
		"pickup_code": "5912",
	}))
	found, err := repo.FindByID(context.Background(), claim.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PickupCode)
	assert.Equal(t, "5912", *found.PickupCode)

	require.NoError(t, repo.Update(context.Background(), claim.ID, map[string]any{
		"status":      enums.ClaimStatusConfirmed,
		"pickup_code": nil,
	}))
	found, err = repo.FindByID(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ClaimStatusConfirmed, found.Status)
	assert.Nil(t, found.PickupCode)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
