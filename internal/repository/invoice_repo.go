package repository

import (
	"context"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ProjectID    *uuid.UUID
	UnitID       *uuid.UUID
	TenantID     *uuid.UUID
	Status       string
	BillingMonth string
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Invoice, error)
	// FindForUpdate loads the invoice under a row-level lock so that
	// concurrent payment verifications serialize on the paid amount.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error)
	ExistsForPeriod(ctx context.Context, tenantID uuid.UUID, billingMonth, invoiceType string) (bool, error)
	ExistsNo(ctx context.Context, invoiceNo string) (bool, error)
	Update(ctx context.Context, invoice *model.Invoice) error
	// MarkOverdue flips open unpaid invoices whose due date has passed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	FindOpenByTenant(ctx context.Context, tenantID uuid.UUID) (*model.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

// ownedInvoices scopes the query to invoices whose project belongs to ownerID.
func ownedInvoices(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *invoiceRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := ownedInvoices(GetDB(ctx, r.db).Model(&model.Invoice{}), ownerID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("Project").
		Preload("Unit").
		First(&invoice, "invoices.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	db := GetDB(ctx, r.db)
	// SELECT ... FOR UPDATE is a no-op request on sqlite, which serializes
	// writers anyway; only postgres needs the explicit clause.
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var invoice model.Invoice
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter, page, limit int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	query := ownedInvoices(GetDB(ctx, r.db).Model(&model.Invoice{}), ownerID)
	if filter.ProjectID != nil {
		query = query.Where("invoices.project_id = ?", *filter.ProjectID)
	}
	if filter.UnitID != nil {
		query = query.Where("invoices.unit_id = ?", *filter.UnitID)
	}
	if filter.TenantID != nil {
		query = query.Where("invoices.tenant_id = ?", *filter.TenantID)
	}
	if filter.Status != "" {
		query = query.Where("invoices.status = ?", filter.Status)
	}
	if filter.BillingMonth != "" {
		query = query.Where("invoices.billing_month = ?", filter.BillingMonth)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Order("invoices.created_at desc").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, tenantID uuid.UUID, billingMonth, invoiceType string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("tenant_id = ? AND billing_month = ? AND type = ? AND status <> ?",
			tenantID, billingMonth, invoiceType, model.InvoiceCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invoiceRepository) ExistsNo(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("invoice_no = ?", invoiceNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("Items").Save(invoice).Error
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("status IN ? AND due_date < ?", []string{model.InvoicePending, model.InvoicePartial}, asOf).
		Update("status", model.InvoiceOverdue)
	return res.RowsAffected, res.Error
}

func (r *invoiceRepository) FindOpenByTenant(ctx context.Context, tenantID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{model.InvoicePending, model.InvoicePartial, model.InvoiceOverdue}).
		Order("due_date asc").
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
