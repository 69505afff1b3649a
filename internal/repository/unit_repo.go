package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Unit, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, projectID *uuid.UUID, page, limit int) ([]model.Unit, int64, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Unit, error)
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type unitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, unit *model.Unit) error {
	return GetDB(ctx, r.db).Create(unit).Error
}

// ownedUnits scopes the query to units whose project belongs to ownerID.
func ownedUnits(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN projects ON projects.id = units.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *unitRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	err := ownedUnits(GetDB(ctx, r.db).Model(&model.Unit{}), ownerID).
		Preload("Project").
		First(&unit, "units.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, projectID *uuid.UUID, page, limit int) ([]model.Unit, int64, error) {
	var units []model.Unit
	var total int64

	db := GetDB(ctx, r.db)
	query := ownedUnits(db.Model(&model.Unit{}), ownerID)
	if projectID != nil {
		query = query.Where("units.project_id = ?", *projectID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("units.unit_no asc").Offset(offset).Limit(limit).Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}

func (r *unitRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Unit, error) {
	var units []model.Unit
	if err := GetDB(ctx, r.db).Where("project_id = ?", projectID).Order("unit_no asc").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *unitRepository) Update(ctx context.Context, unit *model.Unit) error {
	return GetDB(ctx, r.db).Save(unit).Error
}

func (r *unitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Unit{}, "id = ?", id).Error
}
