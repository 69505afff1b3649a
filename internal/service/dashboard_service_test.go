package service

import (
	"context"
	"testing"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummary(t *testing.T) {
	env := newTestEnv(t)
	svc := NewDashboardService(env.db)
	ctx := context.Background()

	env.addUnit(t, "B201") // vacant

	paid := env.issueInvoice(t, "2026-07")
	_, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID:  paid.ID,
		Amount:     "9500",
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)

	env.issueInvoice(t, "2026-08") // still pending, 9500 outstanding

	summary, err := svc.GetSummary(ctx, env.owner.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.TotalUnits)
	assert.EqualValues(t, 1, summary.OccupiedUnits)
	assert.EqualValues(t, 1, summary.VacantUnits)

	assert.True(t, dec(summary.OutstandingAmount).Equal(dec("9500")), "got %s", summary.OutstandingAmount)
	assert.True(t, dec(summary.CollectedThisMonth).Equal(dec("9500")), "got %s", summary.CollectedThisMonth)

	assert.EqualValues(t, 1, summary.InvoicesByStatus[model.InvoicePaid])
	assert.EqualValues(t, 1, summary.InvoicesByStatus[model.InvoicePending])
}

func TestDashboardSummaryScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	svc := NewDashboardService(env.db)

	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)

	summary, err := svc.GetSummary(context.Background(), other.ID)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalUnits)
	assert.True(t, dec(summary.OutstandingAmount).IsZero())
	assert.Empty(t, summary.InvoicesByStatus)
}
