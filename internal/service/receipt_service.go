package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateReceiptRequest struct {
	Note *string `json:"note"`
}

type ReceiptResponse struct {
	ID           string `json:"id"`
	ReceiptNo    string `json:"receipt_no"`
	InvoiceID    string `json:"invoice_id"`
	InvoiceNo    string `json:"invoice_no"`
	TenantName   string `json:"tenant_name"`
	TenantNameTh string `json:"tenant_name_th,omitempty"`
	Amount       string `json:"amount"`
	IssuedAt     string `json:"issued_at"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type ReceiptService interface {
	GetReceipt(ctx context.Context, ownerID, id uuid.UUID) (*ReceiptResponse, error)
	GetReceiptModel(ctx context.Context, ownerID, id uuid.UUID) (*model.Receipt, *model.Project, error)
	ListReceipts(ctx context.Context, ownerID uuid.UUID, invoiceID string, page, limit int) ([]ReceiptResponse, int64, error)
	UpdateReceipt(ctx context.Context, ownerID, id uuid.UUID, req UpdateReceiptRequest) (*ReceiptResponse, error)
	// DeleteReceipt removes a receipt issued in error and recomputes the
	// invoice from its VERIFIED payments: paidAmount becomes the exact
	// sum, status PENDING, PARTIAL or PAID accordingly.
	DeleteReceipt(ctx context.Context, ownerID, id uuid.UUID) error
}

type receiptService struct {
	receiptRepo repository.ReceiptRepository
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	projectRepo repository.ProjectRepository
	txManager   repository.TransactionManager
}

func NewReceiptService(
	receiptRepo repository.ReceiptRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	projectRepo repository.ProjectRepository,
	txManager repository.TransactionManager,
) ReceiptService {
	return &receiptService{
		receiptRepo: receiptRepo,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *receiptService) GetReceipt(ctx context.Context, ownerID, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	resp := toReceiptResponse(receipt)
	return &resp, nil
}

func (s *receiptService) GetReceiptModel(ctx context.Context, ownerID, id uuid.UUID) (*model.Receipt, *model.Project, error) {
	receipt, err := s.receiptRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return nil, nil, err
	}
	project, err := s.projectRepo.FindOwned(ctx, receipt.Invoice.ProjectID, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("project: %w", ErrNotFound)
	}
	return receipt, project, nil
}

func (s *receiptService) ListReceipts(ctx context.Context, ownerID uuid.UUID, invoiceID string, page, limit int) ([]ReceiptResponse, int64, error) {
	var invoiceFilter *uuid.UUID
	if id, err := uuid.Parse(invoiceID); err == nil {
		invoiceFilter = &id
	}

	receipts, total, err := s.receiptRepo.ListOwned(ctx, ownerID, invoiceFilter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		res = append(res, toReceiptResponse(&receipts[i]))
	}
	return res, total, nil
}

func (s *receiptService) UpdateReceipt(ctx context.Context, ownerID, id uuid.UUID, req UpdateReceiptRequest) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if req.Note != nil {
		receipt.Note = *req.Note
	}
	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to update receipt: %w", err)
	}

	resp := toReceiptResponse(receipt)
	return &resp, nil
}

func (s *receiptService) DeleteReceipt(ctx context.Context, ownerID, id uuid.UUID) error {
	receipt, err := s.receiptRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("receipt %s: %w", id, ErrNotFound)
		}
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindForUpdate(txCtx, receipt.InvoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		// Recompute from the VERIFIED payments rather than trusting the
		// cached paid amount.
		paid, sumErr := s.paymentRepo.SumVerifiedByInvoice(txCtx, invoice.ID)
		if sumErr != nil {
			return fmt.Errorf("failed to sum verified payments: %w", sumErr)
		}

		invoice.PaidAmount = paid
		switch {
		case paid.GreaterThanOrEqual(invoice.TotalAmount):
			invoice.Status = model.InvoicePaid
		case paid.IsPositive():
			invoice.Status = model.InvoicePartial
		default:
			invoice.Status = model.InvoicePending
		}

		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}
		return s.receiptRepo.Delete(txCtx, receipt.ID)
	})
}

// --- Mapping ---

func toReceiptResponse(r *model.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:           r.ID.String(),
		ReceiptNo:    r.ReceiptNo,
		InvoiceID:    r.InvoiceID.String(),
		InvoiceNo:    r.InvoiceNo,
		TenantName:   r.TenantName,
		TenantNameTh: r.TenantNameTh,
		Amount:       r.Amount.StringFixed(2),
		IssuedAt:     r.IssuedAt.Format(time.RFC3339),
		Note:         r.Note,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}
