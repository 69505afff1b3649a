package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"
	"propertyflow-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier pushes realtime events to the owning user's connected
// dashboards. Implemented by the websocket hub; nil disables notifications.
type Notifier interface {
	BroadcastEvent(ownerID uuid.UUID, eventType string, payload interface{})
}

// Realtime event types
const (
	EventSlipReceived    = "payment.slip_received"
	EventPaymentVerified = "payment.verified"
)

// --- DTOs ---

type CreatePaymentRequest struct {
	InvoiceID  string `json:"invoice_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Method     string `json:"method" binding:"required,oneof=CASH TRANSFER CHECK PROMPTPAY"`
	Note       string `json:"note"`
	AutoVerify bool   `json:"auto_verify"` // cash/check desk entry: verify immediately
}

type VerifyPaymentRequest struct {
	Approved bool `json:"approved"`
}

type AttachSlipRequest struct {
	Image       string `json:"image" binding:"required"` // base64, optionally a data URL
	ContentType string `json:"content_type"`
	UploadedBy  string `json:"uploaded_by"`
}

type SlipResponse struct {
	ID          string `json:"id"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type"`
	UploadedBy  string `json:"uploaded_by"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}

type PaymentResponse struct {
	ID           string         `json:"id"`
	InvoiceID    string         `json:"invoice_id"`
	InvoiceNo    string         `json:"invoice_no"`
	TenantID     string         `json:"tenant_id"`
	TenantName   string         `json:"tenant_name"`
	BillingMonth string         `json:"billing_month"`
	Amount       string         `json:"amount"`
	Method       string         `json:"method"`
	Status       string         `json:"status"`
	Note         string         `json:"note,omitempty"`
	VerifiedAt   *string        `json:"verified_at"`
	VerifiedBy   *string        `json:"verified_by"`
	Slips        []SlipResponse `json:"slips"`
	CreatedAt    string         `json:"created_at"`
}

type ListPaymentsFilter struct {
	InvoiceID string
	TenantID  string
	Status    string
	Page      int
	Limit     int
}

// --- Interface ---

type PaymentService interface {
	CreatePayment(ctx context.Context, ownerID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error)
	GetPayment(ctx context.Context, ownerID, id uuid.UUID) (*PaymentResponse, error)
	ListPayments(ctx context.Context, ownerID uuid.UUID, filter ListPaymentsFilter) ([]PaymentResponse, int64, error)
	// VerifyPayment applies or rejects a PENDING payment. Approval updates
	// the invoice's paid amount and status and issues a receipt on the
	// transition to PAID, all inside one transaction holding a row lock
	// on the invoice.
	VerifyPayment(ctx context.Context, ownerID, id, verifierID uuid.UUID, approved bool) (*PaymentResponse, error)
	AttachSlip(ctx context.Context, ownerID, paymentID uuid.UUID, req AttachSlipRequest) (*PaymentResponse, error)
	DeleteSlip(ctx context.Context, ownerID, paymentID, slipID uuid.UUID) error
	// IngestSlip records a transfer-proof image against the invoice,
	// reusing the invoice's PENDING payment when one exists. Used by the
	// manual, LINE chat and LIFF ingestion paths.
	IngestSlip(ctx context.Context, invoiceID uuid.UUID, data []byte, contentType, uploadedBy, source string) (*PaymentResponse, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
	receiptRepo repository.ReceiptRepository
	projectRepo repository.ProjectRepository
	txManager   repository.TransactionManager
	store       storage.ObjectStorage
	notifier    Notifier
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	receiptRepo repository.ReceiptRepository,
	projectRepo repository.ProjectRepository,
	txManager repository.TransactionManager,
	store storage.ObjectStorage,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		receiptRepo: receiptRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		store:       store,
		notifier:    notifier,
	}
}

// --- Implementation ---

func (s *paymentService) CreatePayment(ctx context.Context, ownerID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount %q", req.Amount)
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice_id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindOwned(ctx, invoiceID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", req.InvoiceID, ErrNotFound)
		}
		return nil, err
	}
	if !invoice.Open() {
		return nil, fmt.Errorf("invoice %s is %s: %w", invoice.InvoiceNo, invoice.Status, ErrInvalidState)
	}

	payment := newPaymentForInvoice(invoice, amount, req.Method)
	payment.Note = req.Note

	if !req.AutoVerify {
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
		resp := toPaymentResponse(payment)
		return &resp, nil
	}

	// Auto-verify: create and apply in one transaction.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.paymentRepo.Create(txCtx, payment); createErr != nil {
			return fmt.Errorf("failed to create payment: %w", createErr)
		}
		return s.applyVerification(txCtx, payment, ownerID)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ownerID, EventPaymentVerified, payment)
	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *paymentService) GetPayment(ctx context.Context, ownerID, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	resp := toPaymentResponse(payment)
	return &resp, nil
}

func (s *paymentService) ListPayments(ctx context.Context, ownerID uuid.UUID, filter ListPaymentsFilter) ([]PaymentResponse, int64, error) {
	repoFilter := repository.PaymentFilter{Status: filter.Status}
	if id, err := uuid.Parse(filter.InvoiceID); err == nil {
		repoFilter.InvoiceID = &id
	}
	if id, err := uuid.Parse(filter.TenantID); err == nil {
		repoFilter.TenantID = &id
	}

	payments, total, err := s.paymentRepo.ListOwned(ctx, ownerID, repoFilter, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		res = append(res, toPaymentResponse(&payments[i]))
	}
	return res, total, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, ownerID, id, verifierID uuid.UUID, approved bool) (*PaymentResponse, error) {
	// Ownership check before entering the transaction.
	if _, err := s.paymentRepo.FindOwned(ctx, id, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	var payment *model.Payment
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		payment, findErr = s.paymentRepo.FindByID(txCtx, id)
		if findErr != nil {
			return fmt.Errorf("payment not found: %w", findErr)
		}
		if payment.Status != model.PaymentPending {
			return fmt.Errorf("payment is already %s: %w", payment.Status, ErrInvalidState)
		}

		if !approved {
			payment.Status = model.PaymentRejected
			now := time.Now()
			payment.VerifiedAt = &now
			payment.VerifiedBy = &verifierID
			return s.paymentRepo.Update(txCtx, payment)
		}

		now := time.Now()
		payment.VerifiedAt = &now
		payment.VerifiedBy = &verifierID
		return s.applyVerification(txCtx, payment, ownerID)
	})
	if err != nil {
		return nil, err
	}

	if approved {
		s.notify(ownerID, EventPaymentVerified, payment)
	}
	resp := toPaymentResponse(payment)
	return &resp, nil
}

// applyVerification marks the payment VERIFIED and applies its amount to
// the invoice under a row lock: paidAmount accumulates, status flips to
// PAID or PARTIAL, and the first transition to PAID issues the receipt.
// Must run inside a transaction.
func (s *paymentService) applyVerification(ctx context.Context, payment *model.Payment, ownerID uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindForUpdate(ctx, payment.InvoiceID)
	if err != nil {
		return fmt.Errorf("invoice not found: %w", err)
	}

	payment.Status = model.PaymentVerified
	if payment.VerifiedAt == nil {
		now := time.Now()
		payment.VerifiedAt = &now
	}
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	wasPaid := invoice.Status == model.InvoicePaid
	invoice.PaidAmount = invoice.PaidAmount.Add(payment.Amount)
	if invoice.PaidAmount.GreaterThanOrEqual(invoice.TotalAmount) {
		invoice.Status = model.InvoicePaid
	} else {
		invoice.Status = model.InvoicePartial
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	if invoice.Status != model.InvoicePaid || wasPaid {
		return nil
	}

	// First transition to PAID: issue the receipt, unless one already
	// exists (e.g. recreated after an erroneous deletion).
	hasReceipt, err := s.receiptRepo.ExistsByInvoice(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing receipt: %w", err)
	}
	if hasReceipt {
		return nil
	}

	project, err := s.projectRepo.FindOwned(ctx, invoice.ProjectID, ownerID)
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}
	receiptNo, err := s.generateReceiptNo(ctx, project.Code, invoice.BillingMonth)
	if err != nil {
		return err
	}

	receipt := &model.Receipt{
		ReceiptNo:      receiptNo,
		InvoiceID:      invoice.ID,
		Amount:         invoice.TotalAmount,
		IssuedAt:       time.Now(),
		InvoiceNo:      invoice.InvoiceNo,
		TenantSnapshot: invoice.TenantSnapshot,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

func (s *paymentService) generateReceiptNo(ctx context.Context, projectCode, billingMonth string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		no := GenerateDocumentNo("RCT", projectCode, billingMonth)
		exists, err := s.receiptRepo.ExistsNo(ctx, no)
		if err != nil {
			return "", fmt.Errorf("failed to check receipt number: %w", err)
		}
		if !exists {
			return no, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique receipt number for %s/%s", projectCode, billingMonth)
}

func (s *paymentService) AttachSlip(ctx context.Context, ownerID, paymentID uuid.UUID, req AttachSlipRequest) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindOwned(ctx, paymentID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		return nil, err
	}

	data, contentType, err := decodeImagePayload(req.Image, req.ContentType)
	if err != nil {
		return nil, err
	}

	if err := s.storeSlip(ctx, ownerID, payment, data, contentType, req.UploadedBy, model.SlipManual); err != nil {
		return nil, err
	}

	reloaded, err := s.paymentRepo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(reloaded)
	return &resp, nil
}

func (s *paymentService) DeleteSlip(ctx context.Context, ownerID, paymentID, slipID uuid.UUID) error {
	if _, err := s.paymentRepo.FindOwned(ctx, paymentID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
		}
		return err
	}

	slip, err := s.paymentRepo.FindSlip(ctx, paymentID, slipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("slip %s: %w", slipID, ErrNotFound)
		}
		return err
	}

	if err := s.store.Delete(ctx, slip.StorageKey); err != nil {
		// The DB row is still removed; orphaned objects are cheaper than
		// dangling references.
		log.Printf("failed to delete slip object %s: %v", slip.StorageKey, err)
	}
	return s.paymentRepo.DeleteSlip(ctx, slipID)
}

func (s *paymentService) IngestSlip(ctx context.Context, invoiceID uuid.UUID, data []byte, contentType, uploadedBy, source string) (*PaymentResponse, error) {
	invoice, err := s.invoiceRepo.FindForUpdate(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return nil, err
	}
	if !invoice.Open() {
		return nil, fmt.Errorf("invoice %s is %s: %w", invoice.InvoiceNo, invoice.Status, ErrInvalidState)
	}

	// The caller is unauthenticated on the LINE and LIFF paths; resolve
	// the dashboard to notify from the invoice's project.
	project, err := s.projectRepo.FindByID(ctx, invoice.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	// Reuse the invoice's PENDING payment so repeated uploads attach to
	// one record instead of multiplying payments.
	payment, err := s.paymentRepo.FindPendingByInvoice(ctx, invoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = newPaymentForInvoice(invoice, invoice.TotalAmount.Sub(invoice.PaidAmount), model.MethodTransfer)
		if createErr := s.paymentRepo.Create(ctx, payment); createErr != nil {
			return nil, fmt.Errorf("failed to create payment: %w", createErr)
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.storeSlip(ctx, project.OwnerID, payment, data, contentType, uploadedBy, source); err != nil {
		return nil, err
	}

	reloaded, err := s.paymentRepo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(reloaded)
	return &resp, nil
}

// storeSlip uploads the image and records the slip row.
func (s *paymentService) storeSlip(ctx context.Context, ownerID uuid.UUID, payment *model.Payment, data []byte, contentType, uploadedBy, source string) error {
	key := storage.SlipKey(payment.InvoiceID, storage.ExtFromContentType(contentType), time.Now())
	if err := s.store.Upload(ctx, key, contentType, data); err != nil {
		return fmt.Errorf("failed to upload slip: %w", err)
	}

	slip := &model.PaymentSlip{
		PaymentID:   payment.ID,
		StorageKey:  key,
		ContentType: contentType,
		UploadedBy:  uploadedBy,
		Source:      source,
	}
	if err := s.paymentRepo.AddSlip(ctx, slip); err != nil {
		return fmt.Errorf("failed to record slip: %w", err)
	}

	s.notify(ownerID, EventSlipReceived, map[string]string{
		"payment_id": payment.ID.String(),
		"invoice_no": payment.InvoiceNo,
		"source":     source,
	})
	return nil
}

func (s *paymentService) notify(ownerID uuid.UUID, eventType string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.BroadcastEvent(ownerID, eventType, payload)
	}
}

// --- Helpers ---

func newPaymentForInvoice(invoice *model.Invoice, amount decimal.Decimal, method string) *model.Payment {
	return &model.Payment{
		InvoiceID:      invoice.ID,
		TenantID:       invoice.TenantID,
		Amount:         amount,
		Method:         method,
		Status:         model.PaymentPending,
		InvoiceNo:      invoice.InvoiceNo,
		BillingMonth:   invoice.BillingMonth,
		TenantSnapshot: invoice.TenantSnapshot,
	}
}

// decodeImagePayload accepts raw base64 or a data URL and returns the
// bytes plus the effective content type.
func decodeImagePayload(payload, contentType string) ([]byte, string, error) {
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := strings.TrimPrefix(parts[0], "data:")
		if idx := strings.Index(meta, ";"); idx >= 0 {
			meta = meta[:idx]
		}
		if meta != "" {
			contentType = meta
		}
		payload = parts[1]
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return data, contentType, nil
}

// --- Mapping ---

func toPaymentResponse(p *model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:           p.ID.String(),
		InvoiceID:    p.InvoiceID.String(),
		InvoiceNo:    p.InvoiceNo,
		TenantID:     p.TenantID.String(),
		TenantName:   p.TenantName,
		BillingMonth: p.BillingMonth,
		Amount:       p.Amount.StringFixed(2),
		Method:       p.Method,
		Status:       p.Status,
		Note:         p.Note,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.VerifiedAt != nil {
		v := p.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &v
	}
	if p.VerifiedBy != nil {
		v := p.VerifiedBy.String()
		resp.VerifiedBy = &v
	}
	for _, slip := range p.Slips {
		resp.Slips = append(resp.Slips, SlipResponse{
			ID:          slip.ID.String(),
			StorageKey:  slip.StorageKey,
			ContentType: slip.ContentType,
			UploadedBy:  slip.UploadedBy,
			Source:      slip.Source,
			CreatedAt:   slip.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
