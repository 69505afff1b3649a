package service

import (
	"context"
	"testing"
	"time"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceRent(t *testing.T) {
	env := newTestEnv(t)

	resp := env.issueInvoice(t, "2026-08")

	assert.Regexp(t, `^INV-WH1-202608-\d{4}$`, resp.InvoiceNo)
	assert.Equal(t, model.InvoicePending, resp.Status)
	assert.Equal(t, "9500.00", resp.Subtotal) // rent 10000-1000 discount, plus 500 common fee
	assert.Equal(t, "0.00", resp.WithholdingTax)
	assert.Equal(t, "9500.00", resp.TotalAmount)
	assert.Equal(t, "0.00", resp.PaidAmount)
	assert.Equal(t, "Somchai Trading", resp.TenantName)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Rent", resp.Items[0].Description)
	assert.Equal(t, "Common Fee", resp.Items[1].Description)
}

func TestCreateInvoiceCompanyWithholding(t *testing.T) {
	env := newTestEnv(t)

	env.tenant.TenantType = model.TenantCompany
	env.tenant.WithholdingTax = dec("5")
	env.tenant.DiscountAmount = dec("1000")
	require.NoError(t, env.db.Save(env.tenant).Error)

	resp := env.issueInvoice(t, "2026-08")

	// rent 10000-1000=9000, fee 500, withholding 5% of 9500
	assert.Equal(t, "9500.00", resp.Subtotal)
	assert.Equal(t, "475.00", resp.WithholdingTax)
	assert.Equal(t, "9025.00", resp.TotalAmount)
}

func TestCreateInvoiceDuplicatePeriod(t *testing.T) {
	env := newTestEnv(t)
	env.issueInvoice(t, "2026-08")

	_, err := env.invoices.CreateInvoice(context.Background(), env.owner.ID, CreateInvoiceRequest{
		UnitID:       env.unit.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateInvoiceCancelledDoesNotBlockReissue(t *testing.T) {
	env := newTestEnv(t)
	first := env.issueInvoice(t, "2026-08")

	id := mustUUID(t, first.ID)
	_, err := env.invoices.CancelInvoice(context.Background(), env.owner.ID, id)
	require.NoError(t, err)

	second := env.issueInvoice(t, "2026-08")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateInvoiceUtilityWithoutReadings(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.invoices.CreateInvoice(context.Background(), env.owner.ID, CreateInvoiceRequest{
		UnitID:       env.unit.ID.String(),
		Type:         model.InvoiceUtility,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateInvoiceCombinedWithReadings(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.meters.CreateReading(context.Background(), env.owner.ID, CreateMeterReadingRequest{
		UnitID:         env.unit.ID.String(),
		Type:           model.MeterElectricity,
		BillingMonth:   "2026-08",
		CurrentReading: "80",
		Rate:           "4.5",
	})
	require.NoError(t, err)

	resp, err := env.invoices.CreateInvoice(context.Background(), env.owner.ID, CreateInvoiceRequest{
		UnitID:       env.unit.ID.String(),
		Type:         model.InvoiceCombined,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 3)
	assert.Equal(t, "Electricity", resp.Items[2].Description)
	assert.Equal(t, "360.00", resp.Items[2].Amount)
	assert.Equal(t, "9860.00", resp.TotalAmount)
}

func TestCreateInvoiceNoCurrentTenant(t *testing.T) {
	env := newTestEnv(t)
	vacant := env.addUnit(t, "B201")

	_, err := env.invoices.CreateInvoice(context.Background(), env.owner.ID, CreateInvoiceRequest{
		UnitID:       vacant.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInvoiceForeignOwner(t *testing.T) {
	env := newTestEnv(t)

	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)

	_, err := env.invoices.CreateInvoice(context.Background(), other.ID, CreateInvoiceRequest{
		UnitID:       env.unit.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkCreateInvoices(t *testing.T) {
	env := newTestEnv(t)

	unit2 := env.addUnit(t, "B201")
	env.addTenant(t, unit2, "Second Tenant", nil)

	// A lapsed contract on a third unit is excluded from the run.
	unit3 := env.addUnit(t, "C301")
	env.addTenant(t, unit3, "Departed Tenant", func(tn *model.Tenant) {
		tn.ContractStart = time.Now().AddDate(-2, 0, 0)
		tn.ContractEnd = time.Now().AddDate(-1, 0, 0)
	})

	// The default tenant already has an invoice for the period.
	env.issueInvoice(t, "2026-08")

	result, err := env.invoices.BulkCreateInvoices(context.Background(), env.owner.ID, BulkCreateInvoicesRequest{
		ProjectID:    env.project.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)

	var total int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&total).Error)
	assert.EqualValues(t, 2, total)
}

func TestBulkCreateInvoicesUtilitySkipsUnmetered(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.invoices.BulkCreateInvoices(context.Background(), env.owner.ID, BulkCreateInvoicesRequest{
		ProjectID:    env.project.ID.String(),
		Type:         model.InvoiceUtility,
		BillingMonth: "2026-08",
		DueDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestCancelInvoiceStates(t *testing.T) {
	env := newTestEnv(t)
	resp := env.issueInvoice(t, "2026-08")
	id := mustUUID(t, resp.ID)

	cancelled, err := env.invoices.CancelInvoice(context.Background(), env.owner.ID, id)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceCancelled, cancelled.Status)

	_, err = env.invoices.CancelInvoice(context.Background(), env.owner.ID, id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkOverdueInvoices(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.invoices.CreateInvoice(context.Background(), env.owner.ID, CreateInvoiceRequest{
		UnitID:       env.unit.ID.String(),
		Type:         model.InvoiceRent,
		BillingMonth: "2026-07",
		DueDate:      time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	require.NoError(t, err)

	count, err := env.invoices.MarkOverdueInvoices(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.Equal(t, model.InvoiceOverdue, env.reloadInvoice(t, resp.ID).Status)

	// Second sweep finds nothing new.
	count, err = env.invoices.MarkOverdueInvoices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListInvoicesFilterByStatus(t *testing.T) {
	env := newTestEnv(t)
	env.issueInvoice(t, "2026-07")
	resp := env.issueInvoice(t, "2026-08")
	_, err := env.invoices.CancelInvoice(context.Background(), env.owner.ID, mustUUID(t, resp.ID))
	require.NoError(t, err)

	list, total, err := env.invoices.ListInvoices(context.Background(), env.owner.ID, ListInvoicesFilter{
		Status: model.InvoicePending,
		Page:   1,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-07", list[0].BillingMonth)
}
