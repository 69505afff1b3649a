package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus enum constants. VERIFIED and REJECTED are terminal.
const (
	PaymentPending  = "PENDING"
	PaymentVerified = "VERIFIED"
	PaymentRejected = "REJECTED"
)

// Payment method enum constants
const (
	MethodCash      = "CASH"
	MethodTransfer  = "TRANSFER"
	MethodCheck     = "CHECK"
	MethodPromptPay = "PROMPTPAY"
)

// Slip source enum constants
const (
	SlipManual   = "MANUAL"
	SlipLineChat = "LINE_CHAT"
	SlipLiff     = "LIFF"
)

// Payment records money claimed against an invoice. It starts PENDING
// (slip uploads) or VERIFIED (cash desk entry with auto-verify) and is
// applied to the invoice only when verified.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Invoice        *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	Method         string          `gorm:"type:varchar(20);not null;default:'TRANSFER'" json:"method"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Note           string          `gorm:"type:text" json:"note"`
	VerifiedAt     *time.Time      `json:"verified_at"`
	VerifiedBy     *uuid.UUID      `gorm:"type:uuid" json:"verified_by"`
	InvoiceNo      string          `gorm:"type:varchar(30)" json:"invoice_no"`    // snapshot at creation
	BillingMonth   string          `gorm:"type:varchar(7)" json:"billing_month"`  // snapshot at creation
	TenantSnapshot `json:"snapshot"`
	Slips          []PaymentSlip `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"slips"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PaymentSlip is an uploaded transfer-proof image attached to a payment.
type PaymentSlip struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_id"`
	StorageKey  string    `gorm:"type:varchar(255);not null" json:"storage_key"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	UploadedBy  string    `gorm:"type:varchar(255)" json:"uploaded_by"`
	Source      string    `gorm:"type:varchar(20);not null;default:'MANUAL'" json:"source"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *PaymentSlip) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Receipt is issued exactly once when an invoice first reaches PAID.
// InvoiceID is unique-indexed so a second receipt for the same invoice
// cannot be inserted.
type Receipt struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReceiptNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"receipt_no"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"invoice_id"`
	Invoice        *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	IssuedAt       time.Time       `json:"issued_at"`
	Note           string          `gorm:"type:text" json:"note"`
	InvoiceNo      string          `gorm:"type:varchar(30)" json:"invoice_no"` // snapshot at creation
	TenantSnapshot `json:"snapshot"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
