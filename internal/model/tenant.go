package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TenantType enum constants. Withholding tax applies to COMPANY tenants only.
const (
	TenantIndividual = "INDIVIDUAL"
	TenantCompany    = "COMPANY"
)

// Tenant is the occupant of a unit together with its rental terms.
// The monetary terms here are the inputs to invoice generation.
type Tenant struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit            *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	NameTh          string          `gorm:"type:varchar(255)" json:"name_th"`
	TenantType      string          `gorm:"type:varchar(20);not null;default:'INDIVIDUAL'" json:"tenant_type"`
	Phone           string          `gorm:"type:varchar(20)" json:"phone"`
	Email           string          `gorm:"type:varchar(255)" json:"email"`
	TaxID           string          `gorm:"type:varchar(20)" json:"tax_id"`
	BaseRent        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_rent"`
	CommonFee       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"common_fee"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	WithholdingTax  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"withholding_tax"` // percent, COMPANY only
	ContractStart   time.Time       `json:"contract_start"`
	ContractEnd     time.Time       `json:"contract_end"`
	LineUserID      string          `gorm:"type:varchar(64);index" json:"line_user_id"` // linked LINE contact, empty if none
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DisplayName returns the Thai name when lang is "th" and the field is set.
func (t *Tenant) DisplayName(lang string) string {
	if lang == "th" && t.NameTh != "" {
		return t.NameTh
	}
	return t.Name
}
