package repository

import (
	"context"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LineRepository interface {
	UpsertContact(ctx context.Context, contact *model.LineContact) error
	FindContactByLineUserID(ctx context.Context, lineUserID string) (*model.LineContact, error)
	ListContacts(ctx context.Context, page, limit int) ([]model.LineContact, int64, error)
	UpdateContact(ctx context.Context, contact *model.LineContact) error
	SaveMessage(ctx context.Context, message *model.LineMessage) error
	ListMessages(ctx context.Context, contactID uuid.UUID, page, limit int) ([]model.LineMessage, int64, error)
}

type lineRepository struct {
	db *gorm.DB
}

func NewLineRepository(db *gorm.DB) LineRepository {
	return &lineRepository{db: db}
}

func (r *lineRepository) UpsertContact(ctx context.Context, contact *model.LineContact) error {
	db := GetDB(ctx, r.db)
	var existing model.LineContact
	err := db.First(&existing, "line_user_id = ?", contact.LineUserID).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(contact).Error
	}
	if err != nil {
		return err
	}
	existing.DisplayName = contact.DisplayName
	existing.PictureURL = contact.PictureURL
	existing.Followed = contact.Followed
	if contact.TenantID != nil {
		existing.TenantID = contact.TenantID
	}
	if updateErr := db.Save(&existing).Error; updateErr != nil {
		return updateErr
	}
	*contact = existing
	return nil
}

func (r *lineRepository) FindContactByLineUserID(ctx context.Context, lineUserID string) (*model.LineContact, error) {
	var contact model.LineContact
	if err := GetDB(ctx, r.db).Preload("Tenant").First(&contact, "line_user_id = ?", lineUserID).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *lineRepository) ListContacts(ctx context.Context, page, limit int) ([]model.LineContact, int64, error) {
	var contacts []model.LineContact
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.LineContact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Tenant").Order("updated_at desc").Offset(offset).Limit(limit).Find(&contacts).Error; err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

func (r *lineRepository) UpdateContact(ctx context.Context, contact *model.LineContact) error {
	return GetDB(ctx, r.db).Save(contact).Error
}

func (r *lineRepository) SaveMessage(ctx context.Context, message *model.LineMessage) error {
	return GetDB(ctx, r.db).Create(message).Error
}

func (r *lineRepository) ListMessages(ctx context.Context, contactID uuid.UUID, page, limit int) ([]model.LineMessage, int64, error) {
	var messages []model.LineMessage
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.LineMessage{}).Where("line_contact_id = ?", contactID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}
