package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiverStats tracks increment-only analytics counters per receiver.
// Updated by the analytics consumer, never inside core transactions.
type ReceiverStats struct {
	ReceiverID      uuid.UUID       `gorm:"column:receiver_id;type:uuid;primaryKey"`
	ClaimsCreated   int             `gorm:"column:claims_created;not null;default:0"`
	ClaimsCompleted int             `gorm:"column:claims_completed;not null;default:0"`
	Points          int             `gorm:"column:points;not null;default:0"`
	Level           int             `gorm:"column:level;not null;default:1"`
	CO2SavedKg      decimal.Decimal `gorm:"column:co2_saved_kg;type:numeric(14,3);not null;default:0"`
	WaterSavedL     decimal.Decimal `gorm:"column:water_saved_l;type:numeric(14,1);not null;default:0"`
	PeopleServed    int             `gorm:"column:people_served;not null;default:0"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
