package listings

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

func setupListingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	listings := `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  provider_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  total_quantity NUMERIC NOT NULL,
  unit TEXT NOT NULL,
  freshness TEXT NOT NULL,
  priority TEXT NOT NULL DEFAULT 'medium',
  status TEXT NOT NULL DEFAULT 'available',
  safe_until DATETIME NOT NULL,
  available_from DATETIME NOT NULL,
  available_until DATETIME NOT NULL,
  wasted_quantity NUMERIC NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  claim_count INTEGER NOT NULL DEFAULT 0,
  expired_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
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
	require.NoError(t, db.Exec(listings).Error)
	require.NoError(t, db.Exec(claims).Error)
	return db
}

func newListing(t *testing.T, db *gorm.DB, provider uuid.UUID, status enums.ListingStatus, safeUntil, created time.Time) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:             uuid.New(),
		ProviderID:     provider,
		Title:          "Leftover trays",
		TotalQuantity:  decimal.NewFromInt(10),
		Unit:           enums.UnitPortions,
		Freshness:      enums.FreshnessFresh,
		Priority:       enums.PriorityMedium,
		Status:         status,
		SafeUntil:      safeUntil,
		AvailableFrom:  created,
		AvailableUntil: safeUntil,
		WastedQuantity: decimal.Zero,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func newClaimRow(t *testing.T, db *gorm.DB, listingID uuid.UUID, status enums.ClaimStatus, qty int64) *models.Claim {
	t.Helper()

	claim := &models.Claim{
		ID:                uuid.New(),
		ListingID:         listingID,
		ReceiverID:        uuid.New(),
		RequestedQuantity: decimal.NewFromInt(qty),
		Status:            status,
	}
	require.NoError(t, db.Create(claim).Error)
	return claim
}

func TestRepositoryFindByIDPreloadsClaims(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	listing := newListing(t, db, uuid.New(), enums.ListingStatusAvailable, now.Add(4*time.Hour), now)
	newClaimRow(t, db, listing.ID, enums.ClaimStatusPending, 3)
	newClaimRow(t, db, listing.ID, enums.ClaimStatusApproved, 2)

	found, err := repo.FindByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, found.ID)
	assert.Len(t, found.Claims, 2)
	assert.True(t, found.TotalQuantity.Equal(decimal.NewFromInt(10)))
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	provider := uuid.New()
	now := time.Now().UTC()
	safeUntil := now.Add(6 * time.Hour)
	oldest := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now.Add(-2*time.Hour))
	middle := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now.Add(-time.Hour))
	newest := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now)
	newListing(t, db, provider, enums.ListingStatusCancelled, safeUntil, now)
	newListing(t, db, uuid.New(), enums.ListingStatusAvailable, safeUntil, now)

	page, cursor, err := repo.List(context.Background(), ListQuery{
		ProviderID: &provider,
		Statuses:   []enums.ListingStatus{enums.ListingStatusAvailable},
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	second, next, err := repo.List(context.Background(), ListQuery{
		ProviderID: &provider,
		Statuses:   []enums.ListingStatus{enums.ListingStatusAvailable},
		Limit:      2,
		Cursor:     cursor,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
	assert.Nil(t, next)
}

func TestRepositoryListOrdersByPriority(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	provider := uuid.New()
	now := time.Now().UTC()
	safeUntil := now.Add(6 * time.Hour)

	medium := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now)
	urgent := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now.Add(-time.Hour))
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", urgent.ID).
		Update("priority", enums.PriorityUrgent).Error)

	page, _, err := repo.List(context.Background(), ListQuery{ProviderID: &provider, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, urgent.ID, page[0].ID)
	assert.Equal(t, medium.ID, page[1].ID)
}

func TestRepositoryListPaginatesAcrossPriorities(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	provider := uuid.New()
	now := time.Now().UTC()
	safeUntil := now.Add(6 * time.Hour)

	urgent := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now)
	high := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now.Add(-2*time.Hour))
	medium := newListing(t, db, provider, enums.ListingStatusAvailable, safeUntil, now.Add(-time.Hour))
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", urgent.ID).
		Update("priority", enums.PriorityUrgent).Error)
	require.NoError(t, db.Model(&models.Listing{}).Where("id = ?", high.ID).
		Update("priority", enums.PriorityHigh).Error)

	// Page one row at a time; every listing must appear exactly once.
	var seen []uuid.UUID
	var cursor *ListCursor
	for i := 0; i < 4; i++ {
		page, next, err := repo.List(context.Background(), ListQuery{
			ProviderID: &provider,
			Limit:      1,
			Cursor:     cursor,
		})
		require.NoError(t, err)
		for _, row := range page {
			seen = append(seen, row.ID)
		}
		if next == nil {
			break
		}
		cursor = next
	}

	require.Len(t, seen, 3)
	assert.Equal(t, urgent.ID, seen[0])
	assert.Equal(t, high.ID, seen[1])
	assert.Equal(t, medium.ID, seen[2])
}

func TestRepositoryFindSweepableBefore(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	// Far-past window keeps rows from other tests out of the scan.
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	cutoff := base.Add(30 * 24 * time.Hour)

	overdue := newListing(t, db, uuid.New(), enums.ListingStatusAvailable, base, base)
	partial := newListing(t, db, uuid.New(), enums.ListingStatusPartiallyClaimed, base.Add(24*time.Hour), base)
	settled := newListing(t, db, uuid.New(), enums.ListingStatusExpired, base, base)
	future := newListing(t, db, uuid.New(), enums.ListingStatusAvailable, cutoff.Add(24*time.Hour), base)

	rows, err := repo.FindSweepableBefore(context.Background(), cutoff)
	require.NoError(t, err)

	got := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		got[row.ID] = true
	}
	assert.True(t, got[overdue.ID])
	assert.True(t, got[partial.ID])
	assert.False(t, got[settled.ID])
	assert.False(t, got[future.ID])
}

func TestRepositoryCancelActiveClaims(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	listing := newListing(t, db, uuid.New(), enums.ListingStatusPartiallyClaimed, now.Add(4*time.Hour), now)
	pending := newClaimRow(t, db, listing.ID, enums.ClaimStatusPending, 2)
	approved := newClaimRow(t, db, listing.ID, enums.ClaimStatusApproved, 3)
	completed := newClaimRow(t, db, listing.ID, enums.ClaimStatusCompleted, 1)

	code := "4821"
	require.NoError(t, db.Model(&models.Claim{}).Where("id = ?", approved.ID).
		Update("pickup_code", code).Error)

	require.NoError(t, repo.CancelActiveClaims(context.Background(), listing.ID, "listing withdrawn"))

	var rows []models.Claim
	require.NoError(t, db.Where("listing_id = ?", listing.ID).Find(&rows).Error)
	byID := make(map[uuid.UUID]models.Claim, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	assert.Equal(t, enums.ClaimStatusCancelled, byID[pending.ID].Status)
	assert.Equal(t, enums.ClaimStatusCancelled, byID[approved.ID].Status)
	assert.Nil(t, byID[approved.ID].PickupCode)
	require.NotNil(t, byID[approved.ID].CancelReason)
	assert.Equal(t, "listing withdrawn", *byID[approved.ID].CancelReason)
	assert.Equal(t, enums.ClaimStatusCompleted, byID[completed.ID].Status)
}

func TestRepositoryDeleteRemovesClaims(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	listing := newListing(t, db, uuid.New(), enums.ListingStatusCancelled, now.Add(4*time.Hour), now)
	newClaimRow(t, db, listing.ID, enums.ClaimStatusCancelled, 2)

	require.NoError(t, repo.Delete(context.Background(), listing.ID))

	_, err := repo.FindByID(context.Background(), listing.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Claim{}).Where("listing_id = ?", listing.ID).Count(&count).Error)
	assert.Zero(t, count)
}
