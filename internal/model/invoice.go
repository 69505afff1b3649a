package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceType enum constants
const (
	InvoiceRent     = "RENT"
	InvoiceUtility  = "UTILITY"
	InvoiceCombined = "COMBINED"
)

// InvoiceStatus enum constants
const (
	InvoicePending   = "PENDING"
	InvoicePartial   = "PARTIAL"
	InvoicePaid      = "PAID"
	InvoiceOverdue   = "OVERDUE"
	InvoiceCancelled = "CANCELLED"
)

// TenantSnapshot holds denormalized tenant attributes captured when a
// billing document is created, so historical documents keep displaying
// the names that were current at issue time even if the tenant record
// is later edited or deleted.
type TenantSnapshot struct {
	TenantName   string `gorm:"type:varchar(255)" json:"tenant_name"`
	TenantNameTh string `gorm:"type:varchar(255)" json:"tenant_name_th"`
	TenantTaxID  string `gorm:"type:varchar(20)" json:"tenant_tax_id"`
	TenantKind   string `gorm:"type:varchar(20)" json:"tenant_kind"` // INDIVIDUAL or COMPANY at issue time
}

// SnapshotOf captures the denormalized fields from a live tenant record.
func SnapshotOf(t *Tenant) TenantSnapshot {
	return TenantSnapshot{
		TenantName:   t.Name,
		TenantNameTh: t.NameTh,
		TenantTaxID:  t.TaxID,
		TenantKind:   t.TenantType,
	}
}

// Invoice is a billing document for one tenant and billing month.
// TotalAmount = Subtotal - WithholdingTax. PaidAmount accumulates
// VERIFIED payment amounts and drives the status transitions.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	ProjectID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project        *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UnitID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit           *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_invoice_tenant_month_type" json:"tenant_id"`
	Tenant         *Tenant         `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Type           string          `gorm:"type:varchar(20);not null;index:idx_invoice_tenant_month_type" json:"type"`
	BillingMonth   string          `gorm:"type:varchar(7);not null;index:idx_invoice_tenant_month_type" json:"billing_month"`
	DueDate        time.Time       `json:"due_date"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	WithholdingTax decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"withholding_tax"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Note           string          `gorm:"type:text" json:"note"`
	TenantSnapshot `json:"snapshot"`
	Items          []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Open reports whether the invoice can still accept payments.
func (i *Invoice) Open() bool {
	return i.Status == InvoicePending || i.Status == InvoicePartial || i.Status == InvoiceOverdue
}

// InvoiceItem is one line of an invoice. SortOrder preserves the order
// the billing calculator produced the lines in. Quantity/UnitPrice are
// set for rent-style lines, Usage/Rate for metered lines.
type InvoiceItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"invoice_id"`
	SortOrder   int              `gorm:"not null;default:0" json:"sort_order"`
	Description string           `gorm:"type:varchar(255);not null" json:"description"`
	Amount      decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	Quantity    *decimal.Decimal `gorm:"type:decimal(18,2)" json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(18,2)" json:"unit_price,omitempty"`
	Usage       *decimal.Decimal `gorm:"type:decimal(18,2)" json:"usage,omitempty"`
	Rate        *decimal.Decimal `gorm:"type:decimal(18,4)" json:"rate,omitempty"`
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
