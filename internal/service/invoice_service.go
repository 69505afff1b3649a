package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	UnitID       string `json:"unit_id" binding:"required"`
	Type         string `json:"type" binding:"required,oneof=RENT UTILITY COMBINED"`
	BillingMonth string `json:"billing_month" binding:"required"` // "2006-01"
	DueDate      string `json:"due_date" binding:"required"`      // "2006-01-02"
	Note         string `json:"note"`
}

type BulkCreateInvoicesRequest struct {
	ProjectID    string `json:"project_id" binding:"required"`
	Type         string `json:"type" binding:"required,oneof=RENT UTILITY COMBINED"`
	BillingMonth string `json:"billing_month" binding:"required"`
	DueDate      string `json:"due_date" binding:"required"`
}

type BulkCreateInvoicesResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type InvoiceItemResponse struct {
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Quantity    *string `json:"quantity,omitempty"`
	UnitPrice   *string `json:"unit_price,omitempty"`
	Usage       *string `json:"usage,omitempty"`
	Rate        *string `json:"rate,omitempty"`
}

type InvoiceResponse struct {
	ID             string                `json:"id"`
	InvoiceNo      string                `json:"invoice_no"`
	ProjectID      string                `json:"project_id"`
	UnitID         string                `json:"unit_id"`
	TenantID       string                `json:"tenant_id"`
	TenantName     string                `json:"tenant_name"`
	TenantNameTh   string                `json:"tenant_name_th,omitempty"`
	Type           string                `json:"type"`
	BillingMonth   string                `json:"billing_month"`
	DueDate        string                `json:"due_date"`
	Subtotal       string                `json:"subtotal"`
	WithholdingTax string                `json:"withholding_tax"`
	TotalAmount    string                `json:"total_amount"`
	PaidAmount     string                `json:"paid_amount"`
	Status         string                `json:"status"`
	Note           string                `json:"note,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	CreatedAt      string                `json:"created_at"`
}

type ListInvoicesFilter struct {
	ProjectID    string
	UnitID       string
	TenantID     string
	Status       string
	BillingMonth string
	Page         int
	Limit        int
}

// --- Interface ---

type InvoiceService interface {
	// CreateInvoice issues a single invoice for the unit's current tenant
	// (contract window containing today).
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error)
	// BulkCreateInvoices issues invoices for every active tenant of the
	// project. The active predicate here checks only that the contract
	// has not ended, matching the project-level billing run behavior.
	BulkCreateInvoices(ctx context.Context, ownerID uuid.UUID, req BulkCreateInvoicesRequest) (*BulkCreateInvoicesResponse, error)
	GetInvoice(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error)
	GetInvoiceModel(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, *model.Project, error)
	ListInvoices(ctx context.Context, ownerID uuid.UUID, filter ListInvoicesFilter) ([]InvoiceResponse, int64, error)
	CancelInvoice(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error)
	// MarkOverdueInvoices is the daily sweep flipping unpaid invoices past
	// their due date to OVERDUE.
	MarkOverdueInvoices(ctx context.Context) (int64, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	projectRepo repository.ProjectRepository
	unitRepo    repository.UnitRepository
	tenantRepo  repository.TenantRepository
	meterRepo   repository.MeterReadingRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	projectRepo repository.ProjectRepository,
	unitRepo repository.UnitRepository,
	tenantRepo repository.TenantRepository,
	meterRepo repository.MeterReadingRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		unitRepo:    unitRepo,
		tenantRepo:  tenantRepo,
		meterRepo:   meterRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_id: %w", err)
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}
	if err := validateBillingMonth(req.BillingMonth); err != nil {
		return nil, err
	}

	unit, err := s.unitRepo.FindOwned(ctx, unitID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", req.UnitID, ErrNotFound)
	}
	project := unit.Project

	tenant, err := s.tenantRepo.FindCurrentByUnit(ctx, unitID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("no active tenant for unit %s: %w", unit.UnitNo, ErrNotFound)
	}

	exists, err := s.invoiceRepo.ExistsForPeriod(ctx, tenant.ID, req.BillingMonth, req.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoices: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("invoice for %s/%s already exists: %w", req.BillingMonth, req.Type, ErrDuplicate)
	}

	items, err := s.buildItems(ctx, tenant, unitID, req.BillingMonth, req.Type)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no billable items for %s in %s: %w", unit.UnitNo, req.BillingMonth, ErrInvalidState)
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, genErr := s.generateInvoiceNo(txCtx, project.Code, req.BillingMonth)
		if genErr != nil {
			return genErr
		}
		invoice = assembleInvoice(invoiceNo, project.ID, unitID, tenant, req.Type, req.BillingMonth, dueDate, items)
		invoice.Note = req.Note
		return s.invoiceRepo.Create(txCtx, invoice)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	resp := toInvoiceResponse(invoice)
	return &resp, nil
}

func (s *invoiceService) BulkCreateInvoices(ctx context.Context, ownerID uuid.UUID, req BulkCreateInvoicesRequest) (*BulkCreateInvoicesResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id: %w", err)
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}
	if err := validateBillingMonth(req.BillingMonth); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindOwned(ctx, projectID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", req.ProjectID, ErrNotFound)
	}

	tenants, err := s.tenantRepo.ListActiveByProject(ctx, projectID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}

	result := &BulkCreateInvoicesResponse{}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range tenants {
			tenant := &tenants[i]

			exists, checkErr := s.invoiceRepo.ExistsForPeriod(txCtx, tenant.ID, req.BillingMonth, req.Type)
			if checkErr != nil {
				return fmt.Errorf("failed to check existing invoices: %w", checkErr)
			}
			if exists {
				result.Skipped++
				continue
			}

			items, itemsErr := s.buildItems(txCtx, tenant, tenant.UnitID, req.BillingMonth, req.Type)
			if itemsErr != nil {
				return itemsErr
			}
			if len(items) == 0 {
				// Nothing billable this period (e.g. no meter readings
				// for a UTILITY run). Skip silently.
				result.Skipped++
				continue
			}

			invoiceNo, genErr := s.generateInvoiceNo(txCtx, project.Code, req.BillingMonth)
			if genErr != nil {
				return genErr
			}

			invoice := assembleInvoice(invoiceNo, projectID, tenant.UnitID, tenant, req.Type, req.BillingMonth, dueDate, items)
			if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
				return fmt.Errorf("failed to create invoice for tenant %s: %w", tenant.Name, createErr)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("bulk issuance for project %s (%s/%s): created=%d skipped=%d",
		project.Code, req.BillingMonth, req.Type, result.Created, result.Skipped)
	return result, nil
}

// buildItems computes the line items for the requested invoice type.
func (s *invoiceService) buildItems(ctx context.Context, tenant *model.Tenant, unitID uuid.UUID, billingMonth, invoiceType string) ([]BillingLine, error) {
	var items []BillingLine

	if invoiceType == model.InvoiceRent || invoiceType == model.InvoiceCombined {
		items = append(items, ComputeRentItems(tenant)...)
	}
	if invoiceType == model.InvoiceUtility || invoiceType == model.InvoiceCombined {
		readings, err := s.meterRepo.ListByUnitMonth(ctx, unitID, billingMonth)
		if err != nil {
			return nil, fmt.Errorf("failed to load meter readings: %w", err)
		}
		items = append(items, ComputeUtilityItems(readings)...)
	}

	return items, nil
}

// assembleInvoice builds the persistent record from computed lines,
// capturing the tenant snapshot fields.
func assembleInvoice(invoiceNo string, projectID, unitID uuid.UUID, tenant *model.Tenant, invoiceType, billingMonth string, dueDate time.Time, items []BillingLine) *model.Invoice {
	subtotal := SumItems(items)
	withholding := ComputeWithholdingTax(subtotal, tenant)

	invoice := &model.Invoice{
		InvoiceNo:      invoiceNo,
		ProjectID:      projectID,
		UnitID:         unitID,
		TenantID:       tenant.ID,
		Type:           invoiceType,
		BillingMonth:   billingMonth,
		DueDate:        dueDate,
		Subtotal:       subtotal,
		WithholdingTax: withholding,
		TotalAmount:    subtotal.Sub(withholding),
		PaidAmount:     decimal.Zero,
		Status:         model.InvoicePending,
		TenantSnapshot: model.SnapshotOf(tenant),
	}

	for i, item := range items {
		invoice.Items = append(invoice.Items, model.InvoiceItem{
			SortOrder:   i,
			Description: item.Description,
			Amount:      item.Amount,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Usage:       item.Usage,
			Rate:        item.Rate,
		})
	}
	return invoice
}

// generateInvoiceNo retries the random suffix until it is unused.
func (s *invoiceService) generateInvoiceNo(ctx context.Context, projectCode, billingMonth string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		no := GenerateDocumentNo("INV", projectCode, billingMonth)
		exists, err := s.invoiceRepo.ExistsNo(ctx, no)
		if err != nil {
			return "", fmt.Errorf("failed to check invoice number: %w", err)
		}
		if !exists {
			return no, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique invoice number for %s/%s", projectCode, billingMonth)
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	resp := toInvoiceResponse(invoice)
	return &resp, nil
}

// GetInvoiceModel resolves the invoice together with its project for
// rendering and messaging.
func (s *invoiceService) GetInvoiceModel(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, *model.Project, error) {
	invoice, err := s.invoiceRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, nil, err
	}
	return invoice, invoice.Project, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID uuid.UUID, filter ListInvoicesFilter) ([]InvoiceResponse, int64, error) {
	repoFilter := repository.InvoiceFilter{
		Status:       filter.Status,
		BillingMonth: filter.BillingMonth,
	}
	if id, err := uuid.Parse(filter.ProjectID); err == nil {
		repoFilter.ProjectID = &id
	}
	if id, err := uuid.Parse(filter.UnitID); err == nil {
		repoFilter.UnitID = &id
	}
	if id, err := uuid.Parse(filter.TenantID); err == nil {
		repoFilter.TenantID = &id
	}

	invoices, total, err := s.invoiceRepo.ListOwned(ctx, ownerID, repoFilter, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, total, nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if invoice.Status != model.InvoicePending && invoice.Status != model.InvoiceOverdue {
		return nil, fmt.Errorf("cannot cancel invoice with status %s: %w", invoice.Status, ErrInvalidState)
	}

	invoice.Status = model.InvoiceCancelled
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to cancel invoice: %w", err)
	}

	resp := toInvoiceResponse(invoice)
	return &resp, nil
}

func (s *invoiceService) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdue(ctx, time.Now())
}

// --- Helpers ---

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func validateBillingMonth(value string) error {
	if _, err := time.Parse("2006-01", value); err != nil {
		return fmt.Errorf("invalid billing_month %q (want YYYY-MM): %w", value, err)
	}
	return nil
}

// --- Mapping ---

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		InvoiceNo:      inv.InvoiceNo,
		ProjectID:      inv.ProjectID.String(),
		UnitID:         inv.UnitID.String(),
		TenantID:       inv.TenantID.String(),
		TenantName:     inv.TenantName,
		TenantNameTh:   inv.TenantNameTh,
		Type:           inv.Type,
		BillingMonth:   inv.BillingMonth,
		DueDate:        inv.DueDate.Format("2006-01-02"),
		Subtotal:       inv.Subtotal.StringFixed(2),
		WithholdingTax: inv.WithholdingTax.StringFixed(2),
		TotalAmount:    inv.TotalAmount.StringFixed(2),
		PaidAmount:     inv.PaidAmount.StringFixed(2),
		Status:         inv.Status,
		Note:           inv.Note,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}

	for _, item := range inv.Items {
		itemResp := InvoiceItemResponse{
			Description: item.Description,
			Amount:      item.Amount.StringFixed(2),
		}
		if item.Quantity != nil {
			v := item.Quantity.StringFixed(2)
			itemResp.Quantity = &v
		}
		if item.UnitPrice != nil {
			v := item.UnitPrice.StringFixed(2)
			itemResp.UnitPrice = &v
		}
		if item.Usage != nil {
			v := item.Usage.StringFixed(2)
			itemResp.Usage = &v
		}
		if item.Rate != nil {
			v := item.Rate.StringFixed(4)
			itemResp.Rate = &v
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}
