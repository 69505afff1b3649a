package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTenantRequest struct {
	UnitID          string `json:"unit_id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	NameTh          string `json:"name_th"`
	TenantType      string `json:"tenant_type" binding:"required,oneof=INDIVIDUAL COMPANY"`
	Phone           string `json:"phone"`
	Email           string `json:"email" binding:"omitempty,email"`
	TaxID           string `json:"tax_id"`
	BaseRent        string `json:"base_rent" binding:"required"`
	CommonFee       string `json:"common_fee"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	WithholdingTax  string `json:"withholding_tax"`
	ContractStart   string `json:"contract_start" binding:"required"`
	ContractEnd     string `json:"contract_end" binding:"required"`
	LineUserID      string `json:"line_user_id"`
}

type UpdateTenantRequest struct {
	Name            *string `json:"name"`
	NameTh          *string `json:"name_th"`
	TenantType      *string `json:"tenant_type" binding:"omitempty,oneof=INDIVIDUAL COMPANY"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email" binding:"omitempty,email"`
	TaxID           *string `json:"tax_id"`
	BaseRent        *string `json:"base_rent"`
	CommonFee       *string `json:"common_fee"`
	DiscountPercent *string `json:"discount_percent"`
	DiscountAmount  *string `json:"discount_amount"`
	WithholdingTax  *string `json:"withholding_tax"`
	ContractStart   *string `json:"contract_start"`
	ContractEnd     *string `json:"contract_end"`
	LineUserID      *string `json:"line_user_id"`
}

type TenantResponse struct {
	ID              string `json:"id"`
	UnitID          string `json:"unit_id"`
	UnitNo          string `json:"unit_no,omitempty"`
	Name            string `json:"name"`
	NameTh          string `json:"name_th,omitempty"`
	TenantType      string `json:"tenant_type"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	BaseRent        string `json:"base_rent"`
	CommonFee       string `json:"common_fee"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	WithholdingTax  string `json:"withholding_tax"`
	ContractStart   string `json:"contract_start"`
	ContractEnd     string `json:"contract_end"`
	LineUserID      string `json:"line_user_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type TenantService interface {
	CreateTenant(ctx context.Context, ownerID uuid.UUID, req CreateTenantRequest) (*TenantResponse, error)
	GetTenant(ctx context.Context, ownerID, id uuid.UUID) (*TenantResponse, error)
	ListTenants(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, page, limit int) ([]TenantResponse, int64, error)
	UpdateTenant(ctx context.Context, ownerID, id uuid.UUID, req UpdateTenantRequest) (*TenantResponse, error)
	DeleteTenant(ctx context.Context, ownerID, id uuid.UUID) error
}

type tenantService struct {
	tenantRepo repository.TenantRepository
	unitRepo   repository.UnitRepository
}

func NewTenantService(tenantRepo repository.TenantRepository, unitRepo repository.UnitRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo, unitRepo: unitRepo}
}

// --- Implementation ---

func (s *tenantService) CreateTenant(ctx context.Context, ownerID uuid.UUID, req CreateTenantRequest) (*TenantResponse, error) {
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_id: %w", err)
	}
	unit, err := s.unitRepo.FindOwned(ctx, unitID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", req.UnitID, ErrNotFound)
	}

	contractStart, err := parseDate(req.ContractStart)
	if err != nil {
		return nil, fmt.Errorf("invalid contract_start: %w", err)
	}
	contractEnd, err := parseDate(req.ContractEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid contract_end: %w", err)
	}
	if contractEnd.Before(contractStart) {
		return nil, fmt.Errorf("contract_end is before contract_start: %w", ErrInvalidState)
	}

	tenant := &model.Tenant{
		UnitID:        unitID,
		Name:          req.Name,
		NameTh:        req.NameTh,
		TenantType:    req.TenantType,
		Phone:         req.Phone,
		Email:         req.Email,
		TaxID:         req.TaxID,
		ContractStart: contractStart,
		ContractEnd:   contractEnd,
		LineUserID:    req.LineUserID,
	}

	if tenant.BaseRent, err = parseMoney(req.BaseRent, "base_rent"); err != nil {
		return nil, err
	}
	if tenant.CommonFee, err = parseMoneyOrZero(req.CommonFee, "common_fee"); err != nil {
		return nil, err
	}
	if tenant.DiscountPercent, err = parseMoneyOrZero(req.DiscountPercent, "discount_percent"); err != nil {
		return nil, err
	}
	if tenant.DiscountAmount, err = parseMoneyOrZero(req.DiscountAmount, "discount_amount"); err != nil {
		return nil, err
	}
	if tenant.WithholdingTax, err = parseMoneyOrZero(req.WithholdingTax, "withholding_tax"); err != nil {
		return nil, err
	}
	if !tenant.WithholdingTax.IsZero() && tenant.TenantType != model.TenantCompany {
		return nil, fmt.Errorf("withholding tax applies to COMPANY tenants only: %w", ErrInvalidState)
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	// Unit status follows occupancy.
	if unit.Status != model.UnitOccupied {
		unit.Status = model.UnitOccupied
		if err := s.unitRepo.Update(ctx, unit); err != nil {
			return nil, fmt.Errorf("failed to update unit status: %w", err)
		}
	}

	resp := toTenantResponse(tenant)
	return &resp, nil
}

func (s *tenantService) GetTenant(ctx context.Context, ownerID, id uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	resp := toTenantResponse(tenant)
	return &resp, nil
}

func (s *tenantService) ListTenants(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, page, limit int) ([]TenantResponse, int64, error) {
	tenants, total, err := s.tenantRepo.ListOwned(ctx, ownerID, unitID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		res = append(res, toTenantResponse(&tenants[i]))
	}
	return res, total, nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, ownerID, id uuid.UUID, req UpdateTenantRequest) (*TenantResponse, error) {
	tenant, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.NameTh != nil {
		tenant.NameTh = *req.NameTh
	}
	if req.TenantType != nil {
		tenant.TenantType = *req.TenantType
	}
	if req.Phone != nil {
		tenant.Phone = *req.Phone
	}
	if req.Email != nil {
		tenant.Email = *req.Email
	}
	if req.TaxID != nil {
		tenant.TaxID = *req.TaxID
	}
	if req.BaseRent != nil {
		if tenant.BaseRent, err = parseMoney(*req.BaseRent, "base_rent"); err != nil {
			return nil, err
		}
	}
	if req.CommonFee != nil {
		if tenant.CommonFee, err = parseMoneyOrZero(*req.CommonFee, "common_fee"); err != nil {
			return nil, err
		}
	}
	if req.DiscountPercent != nil {
		if tenant.DiscountPercent, err = parseMoneyOrZero(*req.DiscountPercent, "discount_percent"); err != nil {
			return nil, err
		}
	}
	if req.DiscountAmount != nil {
		if tenant.DiscountAmount, err = parseMoneyOrZero(*req.DiscountAmount, "discount_amount"); err != nil {
			return nil, err
		}
	}
	if req.WithholdingTax != nil {
		if tenant.WithholdingTax, err = parseMoneyOrZero(*req.WithholdingTax, "withholding_tax"); err != nil {
			return nil, err
		}
	}
	if req.ContractStart != nil {
		if tenant.ContractStart, err = parseDate(*req.ContractStart); err != nil {
			return nil, fmt.Errorf("invalid contract_start: %w", err)
		}
	}
	if req.ContractEnd != nil {
		if tenant.ContractEnd, err = parseDate(*req.ContractEnd); err != nil {
			return nil, fmt.Errorf("invalid contract_end: %w", err)
		}
	}
	if req.LineUserID != nil {
		tenant.LineUserID = *req.LineUserID
	}

	if tenant.ContractEnd.Before(tenant.ContractStart) {
		return nil, fmt.Errorf("contract_end is before contract_start: %w", ErrInvalidState)
	}
	if !tenant.WithholdingTax.IsZero() && tenant.TenantType != model.TenantCompany {
		return nil, fmt.Errorf("withholding tax applies to COMPANY tenants only: %w", ErrInvalidState)
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	resp := toTenantResponse(tenant)
	return &resp, nil
}

func (s *tenantService) DeleteTenant(ctx context.Context, ownerID, id uuid.UUID) error {
	tenant, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return err
	}

	// Free the unit when its last tenant leaves.
	remaining, _, err := s.tenantRepo.ListOwned(ctx, ownerID, &tenant.UnitID, 1, 1)
	if err == nil && len(remaining) == 0 {
		if unit, findErr := s.unitRepo.FindOwned(ctx, tenant.UnitID, ownerID); findErr == nil {
			unit.Status = model.UnitVacant
			_ = s.unitRepo.Update(ctx, unit)
		}
	}
	return nil
}

// --- Helpers ---

func (s *tenantService) findOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return tenant, nil
}

func parseMoney(value, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative: %w", field, ErrInvalidState)
	}
	return d, nil
}

func parseMoneyOrZero(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseMoney(value, field)
}

func toTenantResponse(t *model.Tenant) TenantResponse {
	resp := TenantResponse{
		ID:              t.ID.String(),
		UnitID:          t.UnitID.String(),
		Name:            t.Name,
		NameTh:          t.NameTh,
		TenantType:      t.TenantType,
		Phone:           t.Phone,
		Email:           t.Email,
		TaxID:           t.TaxID,
		BaseRent:        t.BaseRent.StringFixed(2),
		CommonFee:       t.CommonFee.StringFixed(2),
		DiscountPercent: t.DiscountPercent.StringFixed(2),
		DiscountAmount:  t.DiscountAmount.StringFixed(2),
		WithholdingTax:  t.WithholdingTax.StringFixed(2),
		ContractStart:   t.ContractStart.Format("2006-01-02"),
		ContractEnd:     t.ContractEnd.Format("2006-01-02"),
		LineUserID:      t.LineUserID,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.Unit != nil {
		resp.UnitNo = t.Unit.UnitNo
	}
	return resp
}
