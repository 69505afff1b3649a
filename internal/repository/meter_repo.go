package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeterReadingRepository interface {
	Create(ctx context.Context, reading *model.MeterReading) error
	ListByUnitMonth(ctx context.Context, unitID uuid.UUID, billingMonth string) ([]model.MeterReading, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, billingMonth string, page, limit int) ([]model.MeterReading, int64, error)
	// LatestByUnitType returns the most recent reading for the unit and
	// meter type, used to prefill the previous-reading value.
	LatestByUnitType(ctx context.Context, unitID uuid.UUID, meterType string) (*model.MeterReading, error)
}

type meterReadingRepository struct {
	db *gorm.DB
}

func NewMeterReadingRepository(db *gorm.DB) MeterReadingRepository {
	return &meterReadingRepository{db: db}
}

func (r *meterReadingRepository) Create(ctx context.Context, reading *model.MeterReading) error {
	return GetDB(ctx, r.db).Create(reading).Error
}

func (r *meterReadingRepository) ListByUnitMonth(ctx context.Context, unitID uuid.UUID, billingMonth string) ([]model.MeterReading, error) {
	var readings []model.MeterReading
	err := GetDB(ctx, r.db).
		Where("unit_id = ? AND billing_month = ?", unitID, billingMonth).
		Order("type asc").
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *meterReadingRepository) ListOwned(ctx context.Context, ownerID uuid.UUID, unitID *uuid.UUID, billingMonth string, page, limit int) ([]model.MeterReading, int64, error) {
	var readings []model.MeterReading
	var total int64

	query := GetDB(ctx, r.db).Model(&model.MeterReading{}).
		Joins("JOIN units ON units.id = meter_readings.unit_id").
		Joins("JOIN projects ON projects.id = units.project_id").
		Where("projects.owner_id = ?", ownerID)
	if unitID != nil {
		query = query.Where("meter_readings.unit_id = ?", *unitID)
	}
	if billingMonth != "" {
		query = query.Where("meter_readings.billing_month = ?", billingMonth)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("meter_readings.created_at desc").Offset(offset).Limit(limit).Find(&readings).Error; err != nil {
		return nil, 0, err
	}

	return readings, total, nil
}

func (r *meterReadingRepository) LatestByUnitType(ctx context.Context, unitID uuid.UUID, meterType string) (*model.MeterReading, error) {
	var reading model.MeterReading
	err := GetDB(ctx, r.db).
		Where("unit_id = ? AND type = ?", unitID, meterType).
		Order("billing_month desc").
		First(&reading).Error
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
