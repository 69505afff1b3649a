package service

import (
	"context"
	"log"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackfillResult reports one backfill run.
type BackfillResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// BackfillService populates denormalized tenant snapshots on billing rows
// created before snapshotting existed. An empty snapshot name marks a row
// as not yet migrated, which makes every run idempotent.
type BackfillService interface {
	BackfillInvoices(ctx context.Context) (*BackfillResult, error)
	BackfillPayments(ctx context.Context) (*BackfillResult, error)
	BackfillReceipts(ctx context.Context) (*BackfillResult, error)
}

type backfillService struct {
	db *gorm.DB
}

func NewBackfillService(db *gorm.DB) BackfillService {
	return &backfillService{db: db}
}

func (s *backfillService) BackfillInvoices(ctx context.Context) (*BackfillResult, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).
		Where("tenant_name = '' OR tenant_name IS NULL").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Scanned: len(invoices)}
	for i := range invoices {
		inv := &invoices[i]
		tenant, err := s.lookupTenant(ctx, inv.TenantID)
		if err != nil {
			log.Printf("backfill: invoice %s has no tenant %s, skipping", inv.ID, inv.TenantID)
			result.Skipped++
			continue
		}
		inv.TenantSnapshot = model.SnapshotOf(tenant)
		if err := s.db.WithContext(ctx).Model(inv).
			Select("TenantName", "TenantNameTh", "TenantTaxID", "TenantKind").
			Updates(inv).Error; err != nil {
			return nil, err
		}
		result.Updated++
	}
	return result, nil
}

func (s *backfillService) BackfillPayments(ctx context.Context) (*BackfillResult, error) {
	var payments []model.Payment
	err := s.db.WithContext(ctx).
		Preload("Invoice").
		Where("tenant_name = '' OR tenant_name IS NULL").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Scanned: len(payments)}
	for i := range payments {
		p := &payments[i]
		if p.Invoice == nil {
			log.Printf("backfill: payment %s has no invoice %s, skipping", p.ID, p.InvoiceID)
			result.Skipped++
			continue
		}
		p.TenantSnapshot = p.Invoice.TenantSnapshot
		p.InvoiceNo = p.Invoice.InvoiceNo
		p.BillingMonth = p.Invoice.BillingMonth
		if err := s.db.WithContext(ctx).Model(p).
			Select("TenantName", "TenantNameTh", "TenantTaxID", "TenantKind", "InvoiceNo", "BillingMonth").
			Updates(p).Error; err != nil {
			return nil, err
		}
		result.Updated++
	}
	return result, nil
}

func (s *backfillService) BackfillReceipts(ctx context.Context) (*BackfillResult, error) {
	var receipts []model.Receipt
	err := s.db.WithContext(ctx).
		Preload("Invoice").
		Where("tenant_name = '' OR tenant_name IS NULL").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Scanned: len(receipts)}
	for i := range receipts {
		r := &receipts[i]
		if r.Invoice == nil {
			log.Printf("backfill: receipt %s has no invoice %s, skipping", r.ID, r.InvoiceID)
			result.Skipped++
			continue
		}
		r.TenantSnapshot = r.Invoice.TenantSnapshot
		r.InvoiceNo = r.Invoice.InvoiceNo
		if err := s.db.WithContext(ctx).Model(r).
			Select("TenantName", "TenantNameTh", "TenantTaxID", "TenantKind", "InvoiceNo").
			Updates(r).Error; err != nil {
			return nil, err
		}
		result.Updated++
	}
	return result, nil
}

// lookupTenant includes soft-deleted tenants; the snapshot should be
// recoverable even after the live record is removed.
func (s *backfillService) lookupTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.WithContext(ctx).Unscoped().First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
