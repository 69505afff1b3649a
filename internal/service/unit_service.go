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

type CreateUnitRequest struct {
	ProjectID string  `json:"project_id" binding:"required"`
	UnitNo    string  `json:"unit_no" binding:"required,max=20"`
	Floor     string  `json:"floor"`
	SizeSqm   float64 `json:"size_sqm"`
}

type UpdateUnitRequest struct {
	UnitNo  *string  `json:"unit_no" binding:"omitempty,max=20"`
	Floor   *string  `json:"floor"`
	SizeSqm *float64 `json:"size_sqm"`
	Status  *string  `json:"status" binding:"omitempty,oneof=VACANT OCCUPIED"`
}

type UnitResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	UnitNo    string  `json:"unit_no"`
	Floor     string  `json:"floor,omitempty"`
	SizeSqm   float64 `json:"size_sqm"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// --- Interface ---

type UnitService interface {
	CreateUnit(ctx context.Context, ownerID uuid.UUID, req CreateUnitRequest) (*UnitResponse, error)
	GetUnit(ctx context.Context, ownerID, id uuid.UUID) (*UnitResponse, error)
	ListUnits(ctx context.Context, ownerID uuid.UUID, projectID *uuid.UUID, page, limit int) ([]UnitResponse, int64, error)
	UpdateUnit(ctx context.Context, ownerID, id uuid.UUID, req UpdateUnitRequest) (*UnitResponse, error)
	DeleteUnit(ctx context.Context, ownerID, id uuid.UUID) error
}

type unitService struct {
	unitRepo    repository.UnitRepository
	projectRepo repository.ProjectRepository
}

func NewUnitService(unitRepo repository.UnitRepository, projectRepo repository.ProjectRepository) UnitService {
	return &unitService{unitRepo: unitRepo, projectRepo: projectRepo}
}

// --- Implementation ---

func (s *unitService) CreateUnit(ctx context.Context, ownerID uuid.UUID, req CreateUnitRequest) (*UnitResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id: %w", err)
	}
	if _, err := s.projectRepo.FindOwned(ctx, projectID, ownerID); err != nil {
		return nil, fmt.Errorf("project %s: %w", req.ProjectID, ErrNotFound)
	}

	unit := &model.Unit{
		ProjectID: projectID,
		UnitNo:    req.UnitNo,
		Floor:     req.Floor,
		SizeSqm:   req.SizeSqm,
		Status:    model.UnitVacant,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	resp := toUnitResponse(unit)
	return &resp, nil
}

func (s *unitService) GetUnit(ctx context.Context, ownerID, id uuid.UUID) (*UnitResponse, error) {
	unit, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	resp := toUnitResponse(unit)
	return &resp, nil
}

func (s *unitService) ListUnits(ctx context.Context, ownerID uuid.UUID, projectID *uuid.UUID, page, limit int) ([]UnitResponse, int64, error) {
	units, total, err := s.unitRepo.ListOwned(ctx, ownerID, projectID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UnitResponse, 0, len(units))
	for i := range units {
		res = append(res, toUnitResponse(&units[i]))
	}
	return res, total, nil
}

func (s *unitService) UpdateUnit(ctx context.Context, ownerID, id uuid.UUID, req UpdateUnitRequest) (*UnitResponse, error) {
	unit, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.UnitNo != nil {
		unit.UnitNo = *req.UnitNo
	}
	if req.Floor != nil {
		unit.Floor = *req.Floor
	}
	if req.SizeSqm != nil {
		unit.SizeSqm = *req.SizeSqm
	}
	if req.Status != nil {
		unit.Status = *req.Status
	}

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	resp := toUnitResponse(unit)
	return &resp, nil
}

func (s *unitService) DeleteUnit(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, id, ownerID); err != nil {
		return err
	}
	return s.unitRepo.Delete(ctx, id)
}

// --- Helpers ---

func (s *unitService) findOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Unit, error) {
	unit, err := s.unitRepo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unit %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return unit, nil
}

func toUnitResponse(u *model.Unit) UnitResponse {
	return UnitResponse{
		ID:        u.ID.String(),
		ProjectID: u.ProjectID.String(),
		UnitNo:    u.UnitNo,
		Floor:     u.Floor,
		SizeSqm:   u.SizeSqm,
		Status:    u.Status,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
