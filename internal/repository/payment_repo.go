package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	InvoiceID *uuid.UUID
	TenantID  *uuid.UUID
	Status    string
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Payment, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, filter PaymentFilter, page, limit int) ([]model.Payment, int64, error)
	// FindPendingByInvoice returns the invoice's open PENDING payment, if
	// any, so that repeated slip uploads attach to one payment instead of
	// multiplying records.
	FindPendingByInvoice(ctx context.Context, invoiceID uuid.UUID) (*model.Payment, error)
	Update(ctx context.Context, payment *model.Payment) error
	// SumVerifiedByInvoice recomputes the invoice's paid amount from its
	// VERIFIED payments.
	SumVerifiedByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	AddSlip(ctx context.Context, slip *model.PaymentSlip) error
	FindSlip(ctx context.Context, paymentID, slipID uuid.UUID) (*model.PaymentSlip, error)
	DeleteSlip(ctx context.Context, slipID uuid.UUID) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).Preload("Slips").First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ownedPayments scopes the query through invoice -> project ownership.
func ownedPayments(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *paymentRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := ownedPayments(GetDB(ctx, r.db).Model(&model.Payment{}), ownerID).
		Preload("Slips").
		First(&payment, "payments.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, filter PaymentFilter, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	query := ownedPayments(GetDB(ctx, r.db).Model(&model.Payment{}), ownerID)
	if filter.InvoiceID != nil {
		query = query.Where("payments.invoice_id = ?", *filter.InvoiceID)
	}
	if filter.TenantID != nil {
		query = query.Where("payments.tenant_id = ?", *filter.TenantID)
	}
	if filter.Status != "" {
		query = query.Where("payments.status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Slips").
		Order("payments.created_at desc").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) FindPendingByInvoice(ctx context.Context, invoiceID uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := GetDB(ctx, r.db).
		Where("invoice_id = ? AND status = ?", invoiceID, model.PaymentPending).
		Order("created_at asc").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit("Slips").Save(payment).Error
}

func (r *paymentRepository) SumVerifiedByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("invoice_id = ? AND status = ?", invoiceID, model.PaymentVerified).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *paymentRepository) AddSlip(ctx context.Context, slip *model.PaymentSlip) error {
	return GetDB(ctx, r.db).Create(slip).Error
}

func (r *paymentRepository) FindSlip(ctx context.Context, paymentID, slipID uuid.UUID) (*model.PaymentSlip, error) {
	var slip model.PaymentSlip
	err := GetDB(ctx, r.db).First(&slip, "id = ? AND payment_id = ?", slipID, paymentID).Error
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *paymentRepository) DeleteSlip(ctx context.Context, slipID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.PaymentSlip{}, "id = ?", slipID).Error
}
