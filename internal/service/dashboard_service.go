package service

import (
	"context"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DashboardSummary struct {
	TotalUnits    int64 `json:"total_units"`
	OccupiedUnits int64 `json:"occupied_units"`
	VacantUnits   int64 `json:"vacant_units"`

	// Outstanding across all open invoices (total - paid).
	OutstandingAmount string `json:"outstanding_amount"`
	// Verified payments received this calendar month.
	CollectedThisMonth string `json:"collected_this_month"`

	InvoicesByStatus map[string]int64 `json:"invoices_by_status"`
}

type DashboardService interface {
	GetSummary(ctx context.Context, ownerID uuid.UUID) (*DashboardSummary, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// GetSummary aggregates occupancy and money metrics for one owner's portfolio
func (s *dashboardService) GetSummary(ctx context.Context, ownerID uuid.UUID) (*DashboardSummary, error) {
	summary := &DashboardSummary{InvoicesByStatus: map[string]int64{}}

	// Occupancy
	type unitCount struct {
		Status string
		Count  int64
	}
	var unitCounts []unitCount
	err := s.db.WithContext(ctx).Table("units").
		Select("units.status as status, COUNT(*) as count").
		Joins("JOIN projects ON projects.id = units.project_id").
		Where("projects.owner_id = ? AND units.deleted_at IS NULL", ownerID).
		Group("units.status").
		Scan(&unitCounts).Error
	if err != nil {
		return nil, err
	}
	for _, uc := range unitCounts {
		summary.TotalUnits += uc.Count
		switch uc.Status {
		case model.UnitOccupied:
			summary.OccupiedUnits = uc.Count
		case model.UnitVacant:
			summary.VacantUnits = uc.Count
		}
	}

	// Outstanding balance across open invoices
	var outstanding struct {
		Value string
	}
	err = s.db.WithContext(ctx).Table("invoices").
		Select("COALESCE(SUM(invoices.total_amount - invoices.paid_amount), 0) as value").
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ? AND invoices.status IN ?", ownerID,
			[]string{model.InvoicePending, model.InvoicePartial, model.InvoiceOverdue}).
		Scan(&outstanding).Error
	if err != nil {
		return nil, err
	}
	summary.OutstandingAmount = zeroIfEmpty(outstanding.Value)

	// Verified payments within the current calendar month
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var collected struct {
		Value string
	}
	err = s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(payments.amount), 0) as value").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ? AND payments.status = ? AND payments.verified_at >= ?",
			ownerID, model.PaymentVerified, monthStart).
		Scan(&collected).Error
	if err != nil {
		return nil, err
	}
	summary.CollectedThisMonth = zeroIfEmpty(collected.Value)

	// Invoice counts per status
	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	err = s.db.WithContext(ctx).Table("invoices").
		Select("invoices.status as status, COUNT(*) as count").
		Joins("JOIN projects ON projects.id = invoices.project_id").
		Where("projects.owner_id = ?", ownerID).
		Group("invoices.status").
		Scan(&statusCounts).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		summary.InvoicesByStatus[sc.Status] = sc.Count
	}

	return summary, nil
}

func zeroIfEmpty(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
