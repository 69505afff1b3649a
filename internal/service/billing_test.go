package service

import (
	"regexp"
	"testing"

	"propertyflow-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRentItemsDiscountAmount(t *testing.T) {
	tenant := &model.Tenant{
		BaseRent:       dec("10000"),
		DiscountAmount: dec("1000"),
		CommonFee:      dec("500"),
	}

	items := ComputeRentItems(tenant)
	require.Len(t, items, 2)

	assert.Equal(t, "Rent", items[0].Description)
	assert.True(t, items[0].Amount.Equal(dec("9000")), "got %s", items[0].Amount)
	assert.Equal(t, "Common Fee", items[1].Description)
	assert.True(t, items[1].Amount.Equal(dec("500")))

	assert.True(t, SumItems(items).Equal(dec("9500")))
}

func TestComputeRentItemsDiscountPercent(t *testing.T) {
	tenant := &model.Tenant{
		BaseRent:        dec("10000"),
		DiscountPercent: dec("10"),
	}

	items := ComputeRentItems(tenant)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(dec("9000")), "got %s", items[0].Amount)
}

func TestComputeRentItemsBothDiscounts(t *testing.T) {
	tenant := &model.Tenant{
		BaseRent:        dec("10000"),
		DiscountAmount:  dec("500"),
		DiscountPercent: dec("5"),
	}

	items := ComputeRentItems(tenant)
	require.Len(t, items, 1)
	// 10000 - 500 - 10000*5% = 9000
	assert.True(t, items[0].Amount.Equal(dec("9000")), "got %s", items[0].Amount)
}

func TestComputeRentItemsNothingBillable(t *testing.T) {
	items := ComputeRentItems(&model.Tenant{})
	assert.Empty(t, items)
}

func TestComputeWithholdingTax(t *testing.T) {
	company := &model.Tenant{TenantType: model.TenantCompany, WithholdingTax: dec("5")}
	individual := &model.Tenant{TenantType: model.TenantIndividual, WithholdingTax: dec("5")}

	assert.True(t, ComputeWithholdingTax(dec("9500"), company).Equal(dec("475")))
	assert.True(t, ComputeWithholdingTax(dec("9500"), individual).IsZero())
}

func TestComputeMeterUsage(t *testing.T) {
	assert.True(t, ComputeMeterUsage(dec("100"), dec("180")).Equal(dec("80")))
	// Rollover or re-entry clamps to zero instead of going negative.
	assert.True(t, ComputeMeterUsage(dec("180"), dec("100")).IsZero())
	assert.True(t, ComputeMeterUsage(dec("100"), dec("100")).IsZero())
}

func TestComputeUtilityItems(t *testing.T) {
	readings := []model.MeterReading{
		{Type: model.MeterElectricity, Usage: dec("80"), Rate: dec("4.5"), Amount: dec("360")},
		{Type: model.MeterWater, Usage: dec("10"), Rate: dec("18"), Amount: dec("180")},
	}

	items := ComputeUtilityItems(readings)
	require.Len(t, items, 2)
	assert.Equal(t, "Electricity", items[0].Description)
	assert.True(t, items[0].Amount.Equal(dec("360")))
	assert.True(t, items[0].Usage.Equal(dec("80")))
	assert.True(t, items[0].Rate.Equal(dec("4.5")))
	assert.Equal(t, "Water", items[1].Description)
}

func TestSumItemsEmpty(t *testing.T) {
	assert.True(t, SumItems(nil).Equal(decimal.Zero))
}

func TestGenerateDocumentNo(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-WH1-202608-\d{4}$`)
	for i := 0; i < 20; i++ {
		no := GenerateDocumentNo("INV", "WH1", "2026-08")
		assert.Regexp(t, pattern, no)
	}

	assert.Regexp(t, `^RCT-PJ2-202512-\d{4}$`, GenerateDocumentNo("RCT", "PJ2", "2025-12"))
}
