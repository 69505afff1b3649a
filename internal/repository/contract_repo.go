package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractRepository interface {
	Create(ctx context.Context, contract *model.LeaseContract) error
	FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.LeaseContract, error)
	FindByToken(ctx context.Context, token string) (*model.LeaseContract, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]model.LeaseContract, int64, error)
	Update(ctx context.Context, contract *model.LeaseContract) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *model.LeaseContract) error {
	return GetDB(ctx, r.db).Create(contract).Error
}

func ownedContracts(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN projects ON projects.id = lease_contracts.project_id").
		Where("projects.owner_id = ?", ownerID)
}

func (r *contractRepository) FindOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.LeaseContract, error) {
	var contract model.LeaseContract
	err := ownedContracts(GetDB(ctx, r.db).Model(&model.LeaseContract{}), ownerID).
		Preload("Project").
		Preload("Unit").
		Preload("Tenant").
		First(&contract, "lease_contracts.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByToken(ctx context.Context, token string) (*model.LeaseContract, error) {
	var contract model.LeaseContract
	err := GetDB(ctx, r.db).
		Preload("Project").
		Preload("Unit").
		Preload("Tenant").
		First(&contract, "sign_token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]model.LeaseContract, int64, error) {
	var contracts []model.LeaseContract
	var total int64

	query := ownedContracts(GetDB(ctx, r.db).Model(&model.LeaseContract{}), ownerID)
	if status != "" {
		query = query.Where("lease_contracts.status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Tenant").
		Order("lease_contracts.created_at desc").
		Offset(offset).Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

func (r *contractRepository) Update(ctx context.Context, contract *model.LeaseContract) error {
	return GetDB(ctx, r.db).Save(contract).Error
}

func (r *contractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.LeaseContract{}, "id = ?", id).Error
}
