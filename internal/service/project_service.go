package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"
	"propertyflow-backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const logoURLTTL = time.Hour

// --- DTOs ---

type CreateProjectRequest struct {
	Code          string `json:"code" binding:"required,max=10"`
	Name          string `json:"name" binding:"required"`
	NameTh        string `json:"name_th"`
	Address       string `json:"address"`
	CompanyName   string `json:"company_name"`
	CompanyNameTh string `json:"company_name_th"`
	TaxID         string `json:"tax_id"`
}

type UpdateProjectRequest struct {
	Code          *string `json:"code" binding:"omitempty,max=10"`
	Name          *string `json:"name"`
	NameTh        *string `json:"name_th"`
	Address       *string `json:"address"`
	CompanyName   *string `json:"company_name"`
	CompanyNameTh *string `json:"company_name_th"`
	TaxID         *string `json:"tax_id"`
}

type UploadLogoRequest struct {
	Image       string `json:"image" binding:"required"` // base64, optionally a data URL
	ContentType string `json:"content_type"`
}

type ProjectResponse struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	NameTh        string `json:"name_th,omitempty"`
	Address       string `json:"address,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyNameTh string `json:"company_name_th,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	LogoURL       string `json:"logo_url,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type ProjectService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error)
	GetProject(ctx context.Context, ownerID, id uuid.UUID) (*ProjectResponse, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]ProjectResponse, int64, error)
	UpdateProject(ctx context.Context, ownerID, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error)
	DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error
	// UploadLogo stores the project logo image and records its storage key.
	UploadLogo(ctx context.Context, ownerID, id uuid.UUID, req UploadLogoRequest) (*ProjectResponse, error)
}

type projectService struct {
	repo  repository.ProjectRepository
	store storage.ObjectStorage
}

func NewProjectService(repo repository.ProjectRepository, store storage.ObjectStorage) ProjectService {
	return &projectService{repo: repo, store: store}
}

// --- Implementation ---

func (s *projectService) CreateProject(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error) {
	project := &model.Project{
		OwnerID:       ownerID,
		Code:          req.Code,
		Name:          req.Name,
		NameTh:        req.NameTh,
		Address:       req.Address,
		CompanyName:   req.CompanyName,
		CompanyNameTh: req.CompanyNameTh,
		TaxID:         req.TaxID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.toProjectResponse(ctx, project), nil
}

func (s *projectService) GetProject(ctx context.Context, ownerID, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.toProjectResponse(ctx, project), nil
}

func (s *projectService) ListProjects(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]ProjectResponse, int64, error) {
	projects, total, err := s.repo.ListByOwner(ctx, ownerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		res = append(res, *s.toProjectResponse(ctx, &projects[i]))
	}
	return res, total, nil
}

func (s *projectService) UpdateProject(ctx context.Context, ownerID, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	project, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		project.Code = *req.Code
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.NameTh != nil {
		project.NameTh = *req.NameTh
	}
	if req.Address != nil {
		project.Address = *req.Address
	}
	if req.CompanyName != nil {
		project.CompanyName = *req.CompanyName
	}
	if req.CompanyNameTh != nil {
		project.CompanyNameTh = *req.CompanyNameTh
	}
	if req.TaxID != nil {
		project.TaxID = *req.TaxID
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return s.toProjectResponse(ctx, project), nil
}

func (s *projectService) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, id, ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *projectService) UploadLogo(ctx context.Context, ownerID, id uuid.UUID, req UploadLogoRequest) (*ProjectResponse, error) {
	project, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	data, contentType, err := decodeImagePayload(req.Image, req.ContentType)
	if err != nil {
		return nil, err
	}

	key := storage.LogoKey(project.ID, storage.ExtFromContentType(contentType), time.Now())
	if err := s.store.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	old := project.LogoKey
	project.LogoKey = key
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if old != "" {
		if delErr := s.store.Delete(ctx, old); delErr != nil {
			log.Printf("logo cleanup %s: %v", old, delErr)
		}
	}

	return s.toProjectResponse(ctx, project), nil
}

// --- Helpers ---

func (s *projectService) findOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Project, error) {
	project, err := s.repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) toProjectResponse(ctx context.Context, p *model.Project) *ProjectResponse {
	resp := &ProjectResponse{
		ID:            p.ID.String(),
		Code:          p.Code,
		Name:          p.Name,
		NameTh:        p.NameTh,
		Address:       p.Address,
		CompanyName:   p.CompanyName,
		CompanyNameTh: p.CompanyNameTh,
		TaxID:         p.TaxID,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.LogoKey != "" {
		if url, err := s.store.PresignGet(ctx, p.LogoKey, logoURLTTL); err == nil {
			resp.LogoURL = url
		}
	}
	return resp
}
