package service

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"propertyflow-backend/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BillingLine is one computed invoice line before persistence.
type BillingLine struct {
	Description string
	Amount      decimal.Decimal
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
	Usage       *decimal.Decimal
	Rate        *decimal.Decimal
}

// ComputeRentItems derives the rent lines from the tenant's terms:
// rent = baseRent - discountAmount - baseRent*discountPercent/100,
// plus a separate common-fee line when the fee is positive. A tenant
// with no base rent and no common fee yields no lines.
func ComputeRentItems(t *model.Tenant) []BillingLine {
	var items []BillingLine

	if t.BaseRent.IsPositive() {
		rent := t.BaseRent.
			Sub(t.DiscountAmount).
			Sub(t.BaseRent.Mul(t.DiscountPercent).Div(hundred)).
			Round(2)
		one := decimal.NewFromInt(1)
		items = append(items, BillingLine{
			Description: "Rent",
			Amount:      rent,
			Quantity:    &one,
			UnitPrice:   &rent,
		})
	}

	if t.CommonFee.IsPositive() {
		one := decimal.NewFromInt(1)
		fee := t.CommonFee
		items = append(items, BillingLine{
			Description: "Common Fee",
			Amount:      fee,
			Quantity:    &one,
			UnitPrice:   &fee,
		})
	}

	return items
}

// ComputeUtilityItems maps the unit's meter readings for the billing
// month to invoice lines. Amounts come from the readings themselves
// (usage * rate, fixed at reading creation).
func ComputeUtilityItems(readings []model.MeterReading) []BillingLine {
	items := make([]BillingLine, 0, len(readings))
	for i := range readings {
		r := readings[i]
		usage := r.Usage
		rate := r.Rate
		items = append(items, BillingLine{
			Description: utilityDescription(r.Type),
			Amount:      r.Amount,
			Usage:       &usage,
			Rate:        &rate,
		})
	}
	return items
}

func utilityDescription(meterType string) string {
	switch meterType {
	case model.MeterElectricity:
		return "Electricity"
	case model.MeterWater:
		return "Water"
	default:
		return meterType
	}
}

// SumItems totals the line amounts.
func SumItems(items []BillingLine) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	return sum
}

// ComputeWithholdingTax returns subtotal * withholding% for COMPANY
// tenants and zero for individuals.
func ComputeWithholdingTax(subtotal decimal.Decimal, t *model.Tenant) decimal.Decimal {
	if t.TenantType != model.TenantCompany {
		return decimal.Zero
	}
	return subtotal.Mul(t.WithholdingTax).Div(hundred).Round(2)
}

// ComputeMeterUsage clamps negative deltas (meter rollover or re-entry)
// to zero: usage = max(0, current - previous).
func ComputeMeterUsage(previous, current decimal.Decimal) decimal.Decimal {
	usage := current.Sub(previous)
	if usage.IsNegative() {
		return decimal.Zero
	}
	return usage
}

// GenerateDocumentNo builds "{PREFIX}-{projectCode}-{yyyyMM}-{4 random digits}".
// BillingMonth is in "2006-01" form. Callers retry on collision.
func GenerateDocumentNo(prefix, projectCode, billingMonth string) string {
	month := strings.ReplaceAll(billingMonth, "-", "")
	return fmt.Sprintf("%s-%s-%s-%04d", prefix, projectCode, month, rand.IntN(10000))
}
