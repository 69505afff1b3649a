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

type CreateMeterReadingRequest struct {
	UnitID       string `json:"unit_id" binding:"required"`
	Type         string `json:"type" binding:"required,oneof=ELECTRICITY WATER"`
	BillingMonth string `json:"billing_month" binding:"required"`
	// PreviousReading is optional; when omitted the latest stored reading
	// for the unit and type is carried forward.
	PreviousReading *string `json:"previous_reading"`
	CurrentReading  string  `json:"current_reading" binding:"required"`
	Rate            string  `json:"rate" binding:"required"`
}

type MeterReadingResponse struct {
	ID              string `json:"id"`
	UnitID          string `json:"unit_id"`
	Type            string `json:"type"`
	BillingMonth    string `json:"billing_month"`
	PreviousReading string `json:"previous_reading"`
	CurrentReading  string `json:"current_reading"`
	Usage           string `json:"usage"`
	Rate            string `json:"rate"`
	Amount          string `json:"amount"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type MeterReadingService interface {
	// CreateReading records a metered period. Usage and Amount are
	// computed here once and stored immutably.
	CreateReading(ctx context.Context, ownerID uuid.UUID, req CreateMeterReadingRequest) (*MeterReadingResponse, error)
	ListReadings(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, billingMonth string, page, limit int) ([]MeterReadingResponse, int64, error)
}

type meterReadingService struct {
	meterRepo repository.MeterReadingRepository
	unitRepo  repository.UnitRepository
}

func NewMeterReadingService(meterRepo repository.MeterReadingRepository, unitRepo repository.UnitRepository) MeterReadingService {
	return &meterReadingService{meterRepo: meterRepo, unitRepo: unitRepo}
}

// --- Implementation ---

func (s *meterReadingService) CreateReading(ctx context.Context, ownerID uuid.UUID, req CreateMeterReadingRequest) (*MeterReadingResponse, error) {
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_id: %w", err)
	}
	if _, err := s.unitRepo.FindOwned(ctx, unitID, ownerID); err != nil {
		return nil, fmt.Errorf("unit %s: %w", req.UnitID, ErrNotFound)
	}
	if err := validateBillingMonth(req.BillingMonth); err != nil {
		return nil, err
	}

	current, err := decimal.NewFromString(req.CurrentReading)
	if err != nil {
		return nil, fmt.Errorf("invalid current_reading: %w", err)
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate: %w", err)
	}

	var previous decimal.Decimal
	if req.PreviousReading != nil {
		previous, err = decimal.NewFromString(*req.PreviousReading)
		if err != nil {
			return nil, fmt.Errorf("invalid previous_reading: %w", err)
		}
	} else if latest, findErr := s.meterRepo.LatestByUnitType(ctx, unitID, req.Type); findErr == nil {
		previous = latest.CurrentReading
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, findErr
	}

	usage := ComputeMeterUsage(previous, current)
	reading := &model.MeterReading{
		UnitID:          unitID,
		Type:            req.Type,
		BillingMonth:    req.BillingMonth,
		PreviousReading: previous,
		CurrentReading:  current,
		Usage:           usage,
		Rate:            rate,
		Amount:          usage.Mul(rate).Round(2),
	}
	if err := s.meterRepo.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to create meter reading: %w", err)
	}

	resp := toMeterReadingResponse(reading)
	return &resp, nil
}

func (s *meterReadingService) ListReadings(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, billingMonth string, page, limit int) ([]MeterReadingResponse, int64, error) {
	readings, total, err := s.meterRepo.ListOwned(ctx, ownerID, unitID, billingMonth, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MeterReadingResponse, 0, len(readings))
	for i := range readings {
		res = append(res, toMeterReadingResponse(&readings[i]))
	}
	return res, total, nil
}

func toMeterReadingResponse(m *model.MeterReading) MeterReadingResponse {
	return MeterReadingResponse{
		ID:              m.ID.String(),
		UnitID:          m.UnitID.String(),
		Type:            m.Type,
		BillingMonth:    m.BillingMonth,
		PreviousReading: m.PreviousReading.StringFixed(2),
		CurrentReading:  m.CurrentReading.StringFixed(2),
		Usage:           m.Usage.StringFixed(2),
		Rate:            m.Rate.String(),
		Amount:          m.Amount.StringFixed(2),
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
}
