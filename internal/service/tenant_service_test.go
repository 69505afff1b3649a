package service

import (
	"context"
	"testing"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantService(env *testEnv) TenantService {
	return NewTenantService(repository.NewTenantRepository(env.db), repository.NewUnitRepository(env.db))
}

func TestCreateTenantOccupiesUnit(t *testing.T) {
	env := newTestEnv(t)
	svc := newTenantService(env)
	unit := env.addUnit(t, "B201")
	require.Equal(t, model.UnitVacant, unit.Status)

	resp, err := svc.CreateTenant(context.Background(), env.owner.ID, CreateTenantRequest{
		UnitID:        unit.ID.String(),
		Name:          "New Tenant",
		TenantType:    model.TenantIndividual,
		BaseRent:      "8000",
		CommonFee:     "300",
		ContractStart: "2026-09-01",
		ContractEnd:   "2027-08-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "8000.00", resp.BaseRent)

	var reloaded model.Unit
	require.NoError(t, env.db.First(&reloaded, "id = ?", unit.ID).Error)
	assert.Equal(t, model.UnitOccupied, reloaded.Status)
}

func TestCreateTenantValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTenantService(env)
	unit := env.addUnit(t, "B201")
	ctx := context.Background()

	base := CreateTenantRequest{
		UnitID:        unit.ID.String(),
		Name:          "New Tenant",
		TenantType:    model.TenantIndividual,
		BaseRent:      "8000",
		ContractStart: "2026-09-01",
		ContractEnd:   "2027-08-31",
	}

	reversed := base
	reversed.ContractStart = "2027-08-31"
	reversed.ContractEnd = "2026-09-01"
	_, err := svc.CreateTenant(ctx, env.owner.ID, reversed)
	assert.ErrorIs(t, err, ErrInvalidState)

	negative := base
	negative.BaseRent = "-100"
	_, err = svc.CreateTenant(ctx, env.owner.ID, negative)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Withholding tax is a COMPANY-only term.
	individual := base
	individual.WithholdingTax = "5"
	_, err = svc.CreateTenant(ctx, env.owner.ID, individual)
	assert.ErrorIs(t, err, ErrInvalidState)

	company := base
	company.TenantType = model.TenantCompany
	company.WithholdingTax = "5"
	company.TaxID = "0105551234567"
	resp, err := svc.CreateTenant(ctx, env.owner.ID, company)
	require.NoError(t, err)
	assert.Equal(t, "5.00", resp.WithholdingTax)
}

func TestUpdateTenantWithholdingRule(t *testing.T) {
	env := newTestEnv(t)
	svc := newTenantService(env)
	ctx := context.Background()

	wht := "5"
	_, err := svc.UpdateTenant(ctx, env.owner.ID, env.tenant.ID, UpdateTenantRequest{WithholdingTax: &wht})
	assert.ErrorIs(t, err, ErrInvalidState)

	companyType := model.TenantCompany
	resp, err := svc.UpdateTenant(ctx, env.owner.ID, env.tenant.ID, UpdateTenantRequest{
		TenantType:     &companyType,
		WithholdingTax: &wht,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TenantCompany, resp.TenantType)
	assert.Equal(t, "5.00", resp.WithholdingTax)
}

func TestDeleteTenantFreesUnit(t *testing.T) {
	env := newTestEnv(t)
	svc := newTenantService(env)

	require.NoError(t, svc.DeleteTenant(context.Background(), env.owner.ID, env.tenant.ID))

	var unit model.Unit
	require.NoError(t, env.db.First(&unit, "id = ?", env.unit.ID).Error)
	assert.Equal(t, model.UnitVacant, unit.Status)

	_, err := svc.GetTenant(context.Background(), env.owner.ID, env.tenant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTenantOwnershipScoped(t *testing.T) {
	env := newTestEnv(t)
	svc := newTenantService(env)

	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)

	_, err := svc.GetTenant(context.Background(), other.ID, env.tenant.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
