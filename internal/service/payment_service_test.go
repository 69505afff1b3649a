package service

import (
	"context"
	"encoding/base64"
	"testing"

	"propertyflow-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentAutoVerifyPaysInvoice(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08") // total 9500

	resp, err := env.payments.CreatePayment(context.Background(), env.owner.ID, CreatePaymentRequest{
		InvoiceID:  inv.ID,
		Amount:     "9500",
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentVerified, resp.Status)
	require.NotNil(t, resp.VerifiedAt)

	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("9500")))

	var receipt model.Receipt
	require.NoError(t, env.db.First(&receipt, "invoice_id = ?", inv.ID).Error)
	assert.Regexp(t, `^RCT-WH1-202608-\d{4}$`, receipt.ReceiptNo)
	assert.True(t, receipt.Amount.Equal(reloaded.TotalAmount))
	assert.Equal(t, inv.InvoiceNo, receipt.InvoiceNo)
	assert.Equal(t, "Somchai Trading", receipt.TenantName)

	assert.True(t, env.notifier.has(EventPaymentVerified))
	assert.Equal(t, []uuid.UUID{env.owner.ID}, env.notifier.ownersOf(EventPaymentVerified))
}

func TestVerifyPaymentPartialThenPaid(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	pay := func(amount string) *PaymentResponse {
		p, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
			InvoiceID: inv.ID,
			Amount:    amount,
			Method:    model.MethodTransfer,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, p.Status)
		return p
	}

	first := pay("4000")
	_, err := env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, first.ID), env.owner.ID, true)
	require.NoError(t, err)

	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePartial, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("4000")))

	// No receipt while only partially paid.
	var count int64
	require.NoError(t, env.db.Model(&model.Receipt{}).Where("invoice_id = ?", inv.ID).Count(&count).Error)
	assert.Zero(t, count)

	second := pay("5500")
	_, err = env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, second.ID), env.owner.ID, true)
	require.NoError(t, err)

	reloaded = env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("9500")))

	require.NoError(t, env.db.Model(&model.Receipt{}).Where("invoice_id = ?", inv.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyPaymentAfterPaidKeepsSingleReceipt(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	// Both payments recorded while the invoice is still open.
	full, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "9500",
		Method:    model.MethodTransfer,
	})
	require.NoError(t, err)
	extra, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "100",
		Method:    model.MethodTransfer,
	})
	require.NoError(t, err)

	_, err = env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, full.ID), env.owner.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, env.reloadInvoice(t, inv.ID).Status)

	// Verifying the leftover payment on the already-paid invoice must not
	// issue a second receipt.
	_, err = env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, extra.ID), env.owner.ID, true)
	require.NoError(t, err)

	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(dec("9600")))

	var count int64
	require.NoError(t, env.db.Model(&model.Receipt{}).Where("invoice_id = ?", inv.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyPaymentReject(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	p, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "9500",
		Method:    model.MethodTransfer,
	})
	require.NoError(t, err)

	rejected, err := env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, p.ID), env.owner.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, rejected.Status)
	require.NotNil(t, rejected.VerifiedBy)

	reloaded := env.reloadInvoice(t, inv.ID)
	assert.Equal(t, model.InvoicePending, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.IsZero())

	// A settled payment cannot be verified again.
	_, err = env.payments.VerifyPayment(ctx, env.owner.ID, mustUUID(t, p.ID), env.owner.ID, true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreatePaymentOnClosedInvoice(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	_, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID:  inv.ID,
		Amount:     "9500",
		Method:     model.MethodCash,
		AutoVerify: true,
	})
	require.NoError(t, err)

	_, err = env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "100",
		Method:    model.MethodCash,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestIngestSlipReusesPendingPayment(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()
	invoiceID := mustUUID(t, inv.ID)

	first, err := env.payments.IngestSlip(ctx, invoiceID, []byte("slip-1"), "image/jpeg", "U123", model.SlipLineChat)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, first.Status)
	// A fresh pending payment claims the full open balance.
	assert.Equal(t, "9500.00", first.Amount)
	require.Len(t, first.Slips, 1)
	assert.Equal(t, model.SlipLineChat, first.Slips[0].Source)

	second, err := env.payments.IngestSlip(ctx, invoiceID, []byte("slip-2"), "image/png", "U123", model.SlipLiff)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Slips, 2)

	var payments int64
	require.NoError(t, env.db.Model(&model.Payment{}).Where("invoice_id = ?", invoiceID).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)

	assert.Equal(t, 2, env.store.count())
	assert.True(t, env.notifier.has(EventSlipReceived))
	// Events from the unauthenticated ingest path still reach only the
	// project's owner.
	assert.Equal(t, []uuid.UUID{env.owner.ID, env.owner.ID}, env.notifier.ownersOf(EventSlipReceived))
}

func TestAttachSlipDataURL(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	p, err := env.payments.CreatePayment(ctx, env.owner.ID, CreatePaymentRequest{
		InvoiceID: inv.ID,
		Amount:    "9500",
		Method:    model.MethodTransfer,
	})
	require.NoError(t, err)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("slip-bytes"))
	withSlip, err := env.payments.AttachSlip(ctx, env.owner.ID, mustUUID(t, p.ID), AttachSlipRequest{
		Image:      payload,
		UploadedBy: "desk",
	})
	require.NoError(t, err)

	require.Len(t, withSlip.Slips, 1)
	assert.Equal(t, "image/png", withSlip.Slips[0].ContentType)
	assert.Equal(t, model.SlipManual, withSlip.Slips[0].Source)
	assert.Equal(t, 1, env.store.count())
}

func TestDeleteSlipRemovesObject(t *testing.T) {
	env := newTestEnv(t)
	inv := env.issueInvoice(t, "2026-08")
	ctx := context.Background()

	p, err := env.payments.IngestSlip(ctx, mustUUID(t, inv.ID), []byte("slip"), "image/jpeg", "U123", model.SlipLineChat)
	require.NoError(t, err)
	require.Len(t, p.Slips, 1)

	err = env.payments.DeleteSlip(ctx, env.owner.ID, mustUUID(t, p.ID), mustUUID(t, p.Slips[0].ID))
	require.NoError(t, err)

	assert.Equal(t, 0, env.store.count())
	var slips int64
	require.NoError(t, env.db.Model(&model.PaymentSlip{}).Count(&slips).Error)
	assert.Zero(t, slips)
}

func TestDecodeImagePayload(t *testing.T) {
	data, contentType, err := decodeImagePayload(base64.StdEncoding.EncodeToString([]byte("raw")), "")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)
	assert.Equal(t, "image/jpeg", contentType)

	data, contentType, err = decodeImagePayload("data:image/webp;base64,"+base64.StdEncoding.EncodeToString([]byte("webp")), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []byte("webp"), data)
	assert.Equal(t, "image/webp", contentType)

	_, _, err = decodeImagePayload("not-base64!!", "")
	assert.Error(t, err)

	_, _, err = decodeImagePayload("", "")
	assert.Error(t, err)
}
