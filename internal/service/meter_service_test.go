package service

import (
	"context"
	"testing"

	"propertyflow-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReadingCarriesPreviousForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.meters.CreateReading(ctx, env.owner.ID, CreateMeterReadingRequest{
		UnitID:         env.unit.ID.String(),
		Type:           model.MeterElectricity,
		BillingMonth:   "2026-07",
		CurrentReading: "1200",
		Rate:           "4.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", first.PreviousReading)
	assert.Equal(t, "1200.00", first.Usage)
	assert.Equal(t, "5400.00", first.Amount)

	// The next month picks up where the last reading stopped.
	second, err := env.meters.CreateReading(ctx, env.owner.ID, CreateMeterReadingRequest{
		UnitID:         env.unit.ID.String(),
		Type:           model.MeterElectricity,
		BillingMonth:   "2026-08",
		CurrentReading: "1280",
		Rate:           "4.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "1200.00", second.PreviousReading)
	assert.Equal(t, "80.00", second.Usage)
	assert.Equal(t, "360.00", second.Amount)
}

func TestCreateReadingExplicitPrevious(t *testing.T) {
	env := newTestEnv(t)

	previous := "100"
	resp, err := env.meters.CreateReading(context.Background(), env.owner.ID, CreateMeterReadingRequest{
		UnitID:          env.unit.ID.String(),
		Type:            model.MeterWater,
		BillingMonth:    "2026-08",
		PreviousReading: &previous,
		CurrentReading:  "112",
		Rate:            "18",
	})
	require.NoError(t, err)
	assert.Equal(t, "12.00", resp.Usage)
	assert.Equal(t, "216.00", resp.Amount)
}

func TestCreateReadingClampsNegativeUsage(t *testing.T) {
	env := newTestEnv(t)

	previous := "500"
	resp, err := env.meters.CreateReading(context.Background(), env.owner.ID, CreateMeterReadingRequest{
		UnitID:          env.unit.ID.String(),
		Type:            model.MeterElectricity,
		BillingMonth:    "2026-08",
		PreviousReading: &previous,
		CurrentReading:  "20", // meter replaced
		Rate:            "4.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", resp.Usage)
	assert.Equal(t, "0.00", resp.Amount)
}

func TestCreateReadingUnknownUnit(t *testing.T) {
	env := newTestEnv(t)

	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)

	_, err := env.meters.CreateReading(context.Background(), other.ID, CreateMeterReadingRequest{
		UnitID:         env.unit.ID.String(),
		Type:           model.MeterElectricity,
		BillingMonth:   "2026-08",
		CurrentReading: "100",
		Rate:           "4.5",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReadingsFilterByMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, month := range []string{"2026-07", "2026-08"} {
		_, err := env.meters.CreateReading(ctx, env.owner.ID, CreateMeterReadingRequest{
			UnitID:         env.unit.ID.String(),
			Type:           model.MeterElectricity,
			BillingMonth:   month,
			CurrentReading: "100",
			Rate:           "4.5",
		})
		require.NoError(t, err)
	}

	list, total, err := env.meters.ListReadings(ctx, env.owner.ID, &env.unit.ID, "2026-08", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-08", list[0].BillingMonth)
}
