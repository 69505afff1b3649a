package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"
	"propertyflow-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const signTokenTTL = 7 * 24 * time.Hour

// --- DTOs ---

type CreateContractRequest struct {
	UnitID        string `json:"unit_id" binding:"required"`
	TenantID      string `json:"tenant_id" binding:"required"`
	MonthlyRent   string `json:"monthly_rent" binding:"required"`
	DepositAmount string `json:"deposit_amount"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	Terms         string `json:"terms"`
}

type UpdateContractRequest struct {
	MonthlyRent   *string `json:"monthly_rent"`
	DepositAmount *string `json:"deposit_amount"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	Terms         *string `json:"terms"`
}

type SignContractRequest struct {
	Signature string `json:"signature" binding:"required"` // base64 PNG
}

type ContractResponse struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	UnitID        string  `json:"unit_id"`
	TenantID      string  `json:"tenant_id"`
	TenantName    string  `json:"tenant_name,omitempty"`
	Status        string  `json:"status"`
	MonthlyRent   string  `json:"monthly_rent"`
	DepositAmount string  `json:"deposit_amount"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Terms         string  `json:"terms,omitempty"`
	SignURL       string  `json:"sign_url,omitempty"`
	SignedAt      *string `json:"signed_at"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type ContractService interface {
	CreateContract(ctx context.Context, ownerID uuid.UUID, req CreateContractRequest) (*ContractResponse, error)
	GetContract(ctx context.Context, ownerID, id uuid.UUID) (*ContractResponse, error)
	ListContracts(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]ContractResponse, int64, error)
	// UpdateContract edits a DRAFT contract; any other status is a
	// business-rule violation.
	UpdateContract(ctx context.Context, ownerID, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error)
	// DeleteContract removes a DRAFT contract; signed contracts cannot be
	// deleted.
	DeleteContract(ctx context.Context, ownerID, id uuid.UUID) error
	// SendForSignature mints a time-limited signing token and moves the
	// contract to AWAITING_SIGNATURE.
	SendForSignature(ctx context.Context, ownerID, id uuid.UUID) (*ContractResponse, error)
	// GetByToken resolves a contract from its public signing token,
	// returning ErrTokenExpired past the token's window.
	GetByToken(ctx context.Context, token string) (*ContractResponse, error)
	// SignByToken stores the tenant's signature image and marks the
	// contract SIGNED.
	SignByToken(ctx context.Context, token string, req SignContractRequest) (*ContractResponse, error)
	// Countersign stores the owner's signature on a signed contract.
	Countersign(ctx context.Context, ownerID, id uuid.UUID, req SignContractRequest) (*ContractResponse, error)
}

type contractService struct {
	contractRepo repository.ContractRepository
	unitRepo     repository.UnitRepository
	tenantRepo   repository.TenantRepository
	store        storage.ObjectStorage
	signBaseURL  string
}

func NewContractService(
	contractRepo repository.ContractRepository,
	unitRepo repository.UnitRepository,
	tenantRepo repository.TenantRepository,
	store storage.ObjectStorage,
	signBaseURL string,
) ContractService {
	return &contractService{
		contractRepo: contractRepo,
		unitRepo:     unitRepo,
		tenantRepo:   tenantRepo,
		store:        store,
		signBaseURL:  signBaseURL,
	}
}

// --- Implementation ---

func (s *contractService) CreateContract(ctx context.Context, ownerID uuid.UUID, req CreateContractRequest) (*ContractResponse, error) {
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_id: %w", err)
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant_id: %w", err)
	}

	unit, err := s.unitRepo.FindOwned(ctx, unitID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", req.UnitID, ErrNotFound)
	}
	if _, err := s.tenantRepo.FindOwned(ctx, tenantID, ownerID); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", req.TenantID, ErrNotFound)
	}

	rent, err := decimal.NewFromString(req.MonthlyRent)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly_rent: %w", err)
	}
	deposit := decimal.Zero
	if req.DepositAmount != "" {
		deposit, err = decimal.NewFromString(req.DepositAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid deposit_amount: %w", err)
		}
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}

	contract := &model.LeaseContract{
		ProjectID:     unit.ProjectID,
		UnitID:        unitID,
		TenantID:      tenantID,
		Status:        model.ContractDraft,
		MonthlyRent:   rent,
		DepositAmount: deposit,
		StartDate:     startDate,
		EndDate:       endDate,
		Terms:         req.Terms,
	}
	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) GetContract(ctx context.Context, ownerID, id uuid.UUID) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) ListContracts(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]ContractResponse, int64, error) {
	contracts, total, err := s.contractRepo.ListOwned(ctx, ownerID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		res = append(res, s.toContractResponse(&contracts[i]))
	}
	return res, total, nil
}

func (s *contractService) UpdateContract(ctx context.Context, ownerID, id uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if contract.Status != model.ContractDraft {
		return nil, fmt.Errorf("cannot edit contract with status %s: %w", contract.Status, ErrInvalidState)
	}

	if req.MonthlyRent != nil {
		rent, parseErr := decimal.NewFromString(*req.MonthlyRent)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid monthly_rent: %w", parseErr)
		}
		contract.MonthlyRent = rent
	}
	if req.DepositAmount != nil {
		deposit, parseErr := decimal.NewFromString(*req.DepositAmount)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid deposit_amount: %w", parseErr)
		}
		contract.DepositAmount = deposit
	}
	if req.StartDate != nil {
		startDate, parseErr := parseDate(*req.StartDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid start_date: %w", parseErr)
		}
		contract.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, parseErr := parseDate(*req.EndDate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid end_date: %w", parseErr)
		}
		contract.EndDate = endDate
	}
	if req.Terms != nil {
		contract.Terms = *req.Terms
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) DeleteContract(ctx context.Context, ownerID, id uuid.UUID) error {
	contract, err := s.contractRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("contract %s: %w", id, ErrNotFound)
		}
		return err
	}
	if contract.Status == model.ContractSigned {
		return fmt.Errorf("cannot delete a signed contract: %w", ErrInvalidState)
	}
	return s.contractRepo.Delete(ctx, id)
}

func (s *contractService) SendForSignature(ctx context.Context, ownerID, id uuid.UUID) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if contract.Status == model.ContractSigned {
		return nil, fmt.Errorf("contract is already signed: %w", ErrInvalidState)
	}

	token, err := newSignToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(signTokenTTL)
	contract.SignToken = token
	contract.SignTokenExpiresAt = &expiresAt
	contract.Status = model.ContractAwaiting

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) GetByToken(ctx context.Context, token string) (*ContractResponse, error) {
	contract, err := s.findByValidToken(ctx, token)
	if err != nil {
		return nil, err
	}
	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) SignByToken(ctx context.Context, token string, req SignContractRequest) (*ContractResponse, error) {
	contract, err := s.findByValidToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractAwaiting {
		return nil, fmt.Errorf("contract is not awaiting signature: %w", ErrInvalidState)
	}

	data, _, err := decodeImagePayload(req.Signature, "image/png")
	if err != nil {
		return nil, err
	}

	key := storage.SignatureKey(contract.ID, "tenant", time.Now())
	if err := s.store.Upload(ctx, key, "image/png", data); err != nil {
		return nil, fmt.Errorf("failed to upload signature: %w", err)
	}

	now := time.Now()
	contract.TenantSignatureKey = key
	contract.Status = model.ContractSigned
	contract.SignedAt = &now
	// The token is single-use.
	contract.SignToken = ""
	contract.SignTokenExpiresAt = nil

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	resp := s.toContractResponse(contract)
	return &resp, nil
}

func (s *contractService) Countersign(ctx context.Context, ownerID, id uuid.UUID, req SignContractRequest) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contract %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	data, _, err := decodeImagePayload(req.Signature, "image/png")
	if err != nil {
		return nil, err
	}

	key := storage.SignatureKey(contract.ID, "owner", time.Now())
	if err := s.store.Upload(ctx, key, "image/png", data); err != nil {
		return nil, fmt.Errorf("failed to upload signature: %w", err)
	}

	contract.OwnerSignatureKey = key
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	resp := s.toContractResponse(contract)
	return &resp, nil
}

// --- Helpers ---

func (s *contractService) findByValidToken(ctx context.Context, token string) (*model.LeaseContract, error) {
	if token == "" {
		return nil, fmt.Errorf("signing token is required: %w", ErrNotFound)
	}
	contract, err := s.contractRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("signing token: %w", ErrNotFound)
		}
		return nil, err
	}
	if contract.TokenExpired(time.Now()) {
		return nil, ErrTokenExpired
	}
	return contract, nil
}

func newSignToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signing token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// --- Mapping ---

func (s *contractService) toContractResponse(c *model.LeaseContract) ContractResponse {
	resp := ContractResponse{
		ID:            c.ID.String(),
		ProjectID:     c.ProjectID.String(),
		UnitID:        c.UnitID.String(),
		TenantID:      c.TenantID.String(),
		Status:        c.Status,
		MonthlyRent:   c.MonthlyRent.StringFixed(2),
		DepositAmount: c.DepositAmount.StringFixed(2),
		StartDate:     c.StartDate.Format("2006-01-02"),
		EndDate:       c.EndDate.Format("2006-01-02"),
		Terms:         c.Terms,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.Tenant != nil {
		resp.TenantName = c.Tenant.Name
	}
	if c.SignToken != "" {
		resp.SignURL = s.signBaseURL + "/api/sign/" + c.SignToken
	}
	if c.SignedAt != nil {
		v := c.SignedAt.Format(time.RFC3339)
		resp.SignedAt = &v
	}
	return resp
}
