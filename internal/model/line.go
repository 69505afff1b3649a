package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LineMessage direction enum constants
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// LineContact is a LINE user who has interacted with the channel.
// TenantID is set once the contact is linked to a tenant record, which
// enables automatic slip capture from chat images.
type LineContact struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LineUserID  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"line_user_id"`
	DisplayName string     `gorm:"type:varchar(255)" json:"display_name"`
	PictureURL  string     `gorm:"type:varchar(512)" json:"picture_url"`
	TenantID    *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id"`
	Tenant      *Tenant    `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Followed    bool       `gorm:"not null;default:true" json:"followed"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *LineContact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LineMessage is the stored chat history for a contact, both directions.
// Image messages keep the platform MessageID so their content can be
// fetched later, and StorageKey once the image has been archived.
type LineMessage struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	LineContactID uuid.UUID    `gorm:"type:uuid;not null;index" json:"line_contact_id"`
	Contact       *LineContact `gorm:"foreignKey:LineContactID" json:"-"`
	Direction     string       `gorm:"type:varchar(5);not null" json:"direction"`
	MessageType   string       `gorm:"type:varchar(20);not null" json:"message_type"` // text, image, sticker, ...
	Text          string       `gorm:"type:text" json:"text"`
	MessageID     string       `gorm:"type:varchar(64)" json:"message_id"`
	StorageKey    string       `gorm:"type:varchar(255)" json:"storage_key"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (m *LineMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
