package repository

import (
	"context"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Tenant, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, page, limit int) ([]model.Tenant, int64, error)
	// FindCurrentByUnit resolves the unit's tenant whose contract window
	// contains now (contract_start <= now <= contract_end).
	FindCurrentByUnit(ctx context.Context, unitID uuid.UUID, now time.Time) (*model.Tenant, error)
	// ListActiveByProject returns the project's tenants whose contract has
	// not yet ended (contract_end >= now); the start date is deliberately
	// not checked on this path.
	ListActiveByProject(ctx context.Context, projectID uuid.UUID, now time.Time) ([]model.Tenant, error)
	FindByLineUserID(ctx context.Context, lineUserID string) (*model.Tenant, error)
	// FindByID is unscoped; callers must have established ownership of a
	// parent record already.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	Update(ctx context.Context, tenant *model.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	return GetDB(ctx, r.db).Create(tenant).Error
}

// ownedTenants scopes the query to tenants whose unit's project belongs to ownerID.
func ownedTenants(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN units ON units.id = tenants.unit_id").
		Joins("JOIN projects ON projects.id = units.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *tenantRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	err := ownedTenants(GetDB(ctx, r.db).Model(&model.Tenant{}), ownerID).
		Preload("Unit").
		First(&tenant, "tenants.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, page, limit int) ([]model.Tenant, int64, error) {
	var tenants []model.Tenant
	var total int64

	db := GetDB(ctx, r.db)
	query := ownedTenants(db.Model(&model.Tenant{}), ownerID)
	if unitID != nil {
		query = query.Where("tenants.unit_id = ?", *unitID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("tenants.created_at desc").Offset(offset).Limit(limit).Find(&tenants).Error; err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

func (r *tenantRepository) FindCurrentByUnit(ctx context.Context, unitID uuid.UUID, now time.Time) (*model.Tenant, error) {
	var tenant model.Tenant
	err := GetDB(ctx, r.db).
		Where("unit_id = ? AND contract_start <= ? AND contract_end >= ?", unitID, now, now).
		Order("contract_start desc").
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) ListActiveByProject(ctx context.Context, projectID uuid.UUID, now time.Time) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := GetDB(ctx, r.db).
		Joins("JOIN units ON units.id = tenants.unit_id").
		Where("units.project_id = ? AND tenants.contract_end >= ?", projectID, now).
		Order("units.unit_no asc").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *tenantRepository) FindByLineUserID(ctx context.Context, lineUserID string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := GetDB(ctx, r.db).First(&tenant, "line_user_id = ?", lineUserID).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := GetDB(ctx, r.db).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *model.Tenant) error {
	return GetDB(ctx, r.db).Save(tenant).Error
}

func (r *tenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Tenant{}, "id = ?", id).Error
}
