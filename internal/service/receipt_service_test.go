package service

import (
	"context"
	"testing"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payInFull auto-verifies a cash payment covering the invoice total, which
// issues the receipt.
func payInFull(t *testing.T, env *testEnv, inv *InvoiceResponse) *model.Receipt {
	t.Helper()
	_, err := env.payments.CreatePayment(context.Background(), env.owner.ID, CreatePaymentRequest{
		InvoiceID:  inv.ID,
		Amount:     inv.TotalAmount,
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)

	var receipt model.Receipt
	require.NoError(t, env.db.First(&receipt, "invoice_id = ?", inv.ID).Error)
	return &receipt
}

func TestGetAndListReceipts(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	receipt := payInFull(t, env, inv)

	got, err := env.receipts.GetReceipt(context.Background(), env.owner.ID, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ReceiptNo, got.ReceiptNo)
	assert.Equal(t, inv.InvoiceNo, got.InvoiceNo)
	assert.Equal(t, "9500.00", got.Amount)

	list, total, err := env.receipts.ListReceipts(context.Background(), env.owner.ID, inv.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	// Another owner cannot see it.
	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)
	_, err = env.receipts.GetReceipt(context.Background(), other.ID, receipt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReceiptNote(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	receipt := payInFull(t, env, inv)

	note := "collected at the office"
	updated, err := env.receipts.UpdateReceipt(context.Background(), env.owner.ID, receipt.ID, UpdateReceiptRequest{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, note, updated.Note)
}

func TestDeleteReceiptKeepsPaidStateWhenPaymentsCover(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	receipt := payInFull(t, env, inv)

	require.NoError(t, env.receipts.DeleteReceipt(context.Background(), env.owner.ID, receipt.ID))

	// The verified payment still covers the total, so the invoice stays PAID.
	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("9500")))

	var count int64
	require.NoError(t, env.db.Model(&model.Receipt{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteReceiptRecomputesFromVerifiedPayments(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	p, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "4000",
		Method:    model.MethodTransfer,
	})
	require.NoError(t, err)
	_, err = env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, p.ID), env.owner.ID, true)
	require.NoError(t, err)

	// Simulate a corrupted paid state with a receipt issued in error.
	invoice := env.reloadInvoice(t, inv.ID)
	invoice.PaidAmount = invoice.TotalAmount
	invoice.Status = model.InvoicePaid
	require.NoError(t, env.db.Save(invoice).Error)

	receipt := &model.Receipt{
		ReceiptNo: GenerateDocumentNo("RCT", "WH1", "2026-08"),
		InvoiceID: invoice.ID,
		Amount:    invoice.TotalAmount,
		IssuedAt:  time.Now(),
		InvoiceNo: invoice.InvoiceNo,
	}
	require.NoError(t, env.db.Create(receipt).Error)

	require.NoError(t, env.receipts.DeleteReceipt(ctx, env.owner.ID, receipt.ID))

	// Deletion recomputes from the VERIFIED payments only.
	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePartial, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("4000")), "got %s", reloaded.PaidAmount)
}
