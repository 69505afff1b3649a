package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractStatus enum constants
const (
	ContractDraft    = "DRAFT"
	ContractAwaiting = "AWAITING_SIGNATURE"
	ContractSigned   = "SIGNED"
)

// LeaseContract is the rental agreement for a unit. It is editable only
// while DRAFT; sending it for signature mints a time-limited token the
// tenant uses to view and sign without an account.
type LeaseContract struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project            *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UnitID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit               *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Tenant             *Tenant         `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Status             string          `gorm:"type:varchar(30);not null;default:'DRAFT'" json:"status"`
	MonthlyRent        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"monthly_rent"`
	DepositAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"deposit_amount"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Terms              string          `gorm:"type:text" json:"terms"`
	SignToken          string          `gorm:"type:varchar(64);index" json:"-"`
	SignTokenExpiresAt *time.Time      `json:"-"`
	TenantSignatureKey string          `gorm:"type:varchar(255)" json:"tenant_signature_key"`
	OwnerSignatureKey  string          `gorm:"type:varchar(255)" json:"owner_signature_key"`
	SignedAt           *time.Time      `json:"signed_at"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *LeaseContract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TokenExpired reports whether the signing token can no longer be used.
func (c *LeaseContract) TokenExpired(now time.Time) bool {
	return c.SignTokenExpiresAt == nil || now.After(*c.SignTokenExpiresAt)
}
