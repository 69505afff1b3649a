package service

import (
	"context"
	"testing"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillInvoices(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBackfillService(env.db)
	ctx := context.Background()

	inv := env.issueInvoice(t, "2026-08")

	// Simulate a pre-snapshot row.
	require.NoError(t, env.db.Model(&model.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{"tenant_name": "", "tenant_kind": ""}).Error)

	result, err := svc.BackfillInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Skipped)

	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, "Somchai Trading", reloaded.TenantName)
	assert.Equal(t, model.TenantIndividual, reloaded.TenantKind)

	// Idempotent: nothing left to migrate.
	result, err = svc.BackfillInvoices(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
}

func TestBackfillInvoicesUsesSoftDeletedTenant(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBackfillService(env.db)
	ctx := context.Background()

	inv := env.issueInvoice(t, "2026-08")
	require.NoError(t, env.db.Model(&model.Invoice{}).
		Where("id = ?", inv.ID).
		Update("tenant_name", "").Error)

	// Soft-delete the tenant; the snapshot must still be recoverable.
	require.NoError(t, env.db.Delete(&model.Tenant{}, "id = ?", env.tenant.ID).Error)

	result, err := svc.BackfillInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "Somchai Trading", env.reloadInvoice(t, inv.ID).TenantName)
}

func TestBackfillPaymentsAndReceipts(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBackfillService(env.db)
	ctx := context.Background()

	inv := env.issueInvoice(t, "2026-08")
	_, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID:  inv.ID,
		Amount:     "9500",
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Payment{}).
		Where("invoice_id = ?", inv.ID).
		Updates(map[string]interface{}{"tenant_name": "", "invoice_no": "", "billing_month": ""}).Error)
	require.NoError(t, env.db.Model(&model.Receipt{}).
		Where("invoice_id = ?", inv.ID).
		Updates(map[string]interface{}{"tenant_name": "", "invoice_no": ""}).Error)

	payResult, err := svc.BackfillPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, payResult.Updated)

	var payment model.Payment
	require.NoError(t, env.db.First(&payment, "invoice_id = ?", inv.ID).Error)
	assert.Equal(t, "Somchai Trading", payment.TenantName)
	assert.Equal(t, inv.InvoiceNo, payment.InvoiceNo)
	assert.Equal(t, "2026-08", payment.BillingMonth)

	rcptResult, err := svc.BackfillReceipts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rcptResult.Updated)

	var receipt model.Receipt
	require.NoError(t, env.db.First(&receipt, "invoice_id = ?", inv.ID).Error)
	assert.Equal(t, "Somchai Trading", receipt.TenantName)
	assert.Equal(t, inv.InvoiceNo, receipt.InvoiceNo)
}
