package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Meter type enum constants
const (
	MeterElectricity = "ELECTRICITY"
	MeterWater       = "WATER"
)

// MeterReading records one metered billing period for a unit.
// Usage and Amount are computed once at creation and never change;
// together the readings form the unit's immutable usage history.
type MeterReading struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_meter_unit_month" json:"unit_id"`
	Unit            *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Type            string          `gorm:"type:varchar(20);not null" json:"type"`
	BillingMonth    string          `gorm:"type:varchar(7);not null;index:idx_meter_unit_month" json:"billing_month"` // "2006-01"
	PreviousReading decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"previous_reading"`
	CurrentReading  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"current_reading"`
	Usage           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"usage"` // max(0, current - previous)
	Rate            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"rate"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"` // usage * rate
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *MeterReading) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
