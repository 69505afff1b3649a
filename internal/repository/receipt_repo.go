package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Receipt, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, invoiceID *uuid.UUID, page, limit int) ([]model.Receipt, int64, error)
	ExistsByInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	ExistsNo(ctx context.Context, receiptNo string) (bool, error)
	Update(ctx context.Context, receipt *model.Receipt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

func ownedReceipts(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN invoices ON invoices.id = receipts.invoice_id").
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *receiptRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Receipt, error) {
	var receipt model.Receipt
	err := ownedReceipts(GetDB(ctx, r.db).Model(&model.Receipt{}), ownerID).
		Preload("Invoice").
		First(&receipt, "receipts.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, invoiceID *uuid.UUID, page, limit int) ([]model.Receipt, int64, error) {
	var receipts []model.Receipt
	var total int64

	query := ownedReceipts(GetDB(ctx, r.db).Model(&model.Receipt{}), ownerID)
	if invoiceID != nil {
		query = query.Where("receipts.invoice_id = ?", *invoiceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("receipts.created_at desc").Offset(offset).Limit(limit).Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, total, nil
}

func (r *receiptRepository) ExistsByInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Receipt{}).Where("invoice_id = ?", invoiceID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *receiptRepository) ExistsNo(ctx context.Context, receiptNo string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Receipt{}).Where("receipt_no = ?", receiptNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *receiptRepository) Update(ctx context.Context, receipt *model.Receipt) error {
	return GetDB(ctx, r.db).Save(receipt).Error
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Receipt{}, "id = ?", id).Error
}
