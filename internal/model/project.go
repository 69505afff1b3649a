package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a property or warehouse development owned by a single user.
// Code is a short human-readable identifier embedded in invoice and
// receipt numbers, e.g. "WH1".
type Project struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner         *User          `gorm:"foreignKey:OwnerID" json:"-"`
	Code          string         `gorm:"type:varchar(10);not null" json:"code"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	NameTh        string         `gorm:"type:varchar(255)" json:"name_th"`
	Address       string         `gorm:"type:text" json:"address"`
	CompanyName   string         `gorm:"type:varchar(255)" json:"company_name"`
	CompanyNameTh string         `gorm:"type:varchar(255)" json:"company_name_th"`
	TaxID         string         `gorm:"type:varchar(20)" json:"tax_id"`
	LogoKey       string         `gorm:"type:varchar(255)" json:"logo_key"` // object storage key
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Unit status enum constants
const (
	UnitVacant   = "VACANT"
	UnitOccupied = "OCCUPIED"
)

// Unit is a rentable space (room, warehouse bay) inside a project.
type Unit struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UnitNo    string         `gorm:"type:varchar(20);not null" json:"unit_no"`
	Floor     string         `gorm:"type:varchar(10)" json:"floor"`
	SizeSqm   float64        `json:"size_sqm"`
	Status    string         `gorm:"type:varchar(20);not null;default:'VACANT'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
