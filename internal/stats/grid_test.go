package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/logbook/internal/fuel"
	"github.com/verte-zerg/logbook/internal/generator"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
	"github.com/verte-zerg/logbook/internal/store"
)

func seedShowcase(t *testing.T) (*store.Store, generator.Dataset) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "logbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	data := generator.Showcase()
	_, err = st.InsertVehicle(ctx, data.Vehicle)
	require.NoError(t, err)
	_, err = st.ReplaceYearTrips(ctx, data.Vehicle.ID, 2024, data.Trips)
	require.NoError(t, err)
	return st, data
}

func TestBuildGridShowcase(t *testing.T) {
	st, data := seedShowcase(t)
	grid, err := BuildGrid(context.Background(), st, model.GridConfig{VehicleID: data.Vehicle.ID, Year: 2024})
	require.NoError(t, err)

	require.Len(t, grid.Rows, 18)
	require.Len(t, grid.Periods, 3)
	assert.Equal(t, 50.0, grid.StartLevel)
	assert.Equal(t, 50.0, grid.FinalLevel)

	first := grid.Rows[0]
	assert.Equal(t, "2024-01-03", first.Trip.Date)
	assert.InDelta(t, 5.6, first.Fuel.Rate, 1e-9)
	assert.False(t, first.Fuel.Estimated)
	assert.InDelta(t, 3.08, first.Fuel.Consumed, 1e-9)
	assert.InDelta(t, 46.92, first.Fuel.Remaining, 1e-9)

	for _, r := range grid.Rows {
		assert.False(t, r.DateWarning, r.Trip.Date)
		if r.Period == 1 {
			assert.True(t, r.ConsumptionWarning)
		} else {
			assert.False(t, r.ConsumptionWarning)
		}
	}
	assert.Len(t, ConsumptionWarnings(grid), 6)
}

func TestSummarizeShowcase(t *testing.T) {
	data := generator.Showcase()
	sum := Summarize(NewGrid(data.Vehicle, 2024, data.Trips, fuel.Options{}))

	assert.Equal(t, 18, sum.Trips)
	assert.Equal(t, 3, sum.FillUps)
	assert.Equal(t, 1336.0, sum.TotalDistance)
	assert.InDelta(t, 80.5, sum.TotalFuel, 1e-9)
	assert.Equal(t, "128.80", sum.TotalFuelCost.StringFixed(2))
	assert.True(t, sum.TotalOtherCosts.IsZero())
	assert.InDelta(t, 80.5/1336*100, sum.AverageRate, 1e-9)
	assert.InDelta(t, 32.0/550*100, sum.LastRate, 1e-9)
	require.NotNil(t, sum.Margin)
	assert.InDelta(t, (28.9/436*100/5.1-1)*100, *sum.Margin, 1e-9)
	assert.True(t, sum.OverLimit)
	assert.InDelta(t, 8050/(5.1*1.18)-1336, sum.BufferKm, 1e-9)
	assert.Equal(t, 6, sum.Warnings)
	assert.Equal(t, 50.0, sum.FuelRemaining)
}

func TestSummarizeEmptyYear(t *testing.T) {
	data := generator.Showcase()
	sum := Summarize(NewGrid(data.Vehicle, 2025, nil, fuel.Options{}))
	assert.Equal(t, 0, sum.Trips)
	assert.Nil(t, sum.Margin)
	assert.False(t, sum.OverLimit)
	assert.Equal(t, 5.1, sum.LastRate)
	assert.Equal(t, 50.0, sum.FuelRemaining)
}

func TestBuildGridCarryover(t *testing.T) {
	ctx := context.Background()
	st, data := seedShowcase(t)
	// The showcase ends on a full tank; a late December trip drains it.
	_, err := st.InsertTrip(ctx, model.Trip{
		VehicleID:   data.Vehicle.ID,
		Date:        "2024-12-30",
		Origin:      "Bratislava",
		Destination: "Košice",
		Distance:    400,
		Odometer:    46736,
		Purpose:     "služobná cesta",
		FullTank:    true,
	})
	require.NoError(t, err)
	_, err = st.InsertTrip(ctx, model.Trip{
		VehicleID:   data.Vehicle.ID,
		Date:        "2025-01-02",
		Origin:      "Košice",
		Destination: "Bratislava",
		Distance:    100,
		Odometer:    46836,
		Purpose:     "návrat",
		FullTank:    true,
	})
	require.NoError(t, err)

	plain, err := BuildGrid(ctx, st, model.GridConfig{VehicleID: data.Vehicle.ID, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, 50.0, plain.StartLevel)

	carried, err := BuildGrid(ctx, st, model.GridConfig{VehicleID: data.Vehicle.ID, Year: 2025, Carryover: true})
	require.NoError(t, err)
	// The trailing 400 km open period runs at the 5.1 reference rate.
	assert.InDelta(t, 50-20.4, carried.StartLevel, 1e-9)
	require.Len(t, carried.Rows, 1)
	assert.InDelta(t, 50-20.4-5.1, carried.Rows[0].Fuel.Remaining, 1e-9)
}

func TestBuildGridUnknownVehicle(t *testing.T) {
	st, _ := seedShowcase(t)
	_, err := BuildGrid(context.Background(), st, model.GridConfig{VehicleID: "missing", Year: 2024})
	assert.ErrorIs(t, err, store.ErrVehicleNotFound)
}

func TestBuildGridStrictDiagnostics(t *testing.T) {
	vehicle := model.Vehicle{ID: "v", TankCapacity: 10, ReferenceRate: 10}
	trips := []model.Trip{
		{ID: "a", Date: "2024-01-01", Distance: 150, Odometer: 150},
	}
	lenient := NewGrid(vehicle, 2024, trips, fuel.Options{})
	strict := NewGrid(vehicle, 2024, trips, fuel.Options{Strict: true})
	assert.Empty(t, lenient.Diagnostics)
	require.Len(t, strict.Diagnostics, 1)
	assert.Equal(t, fuel.Underflow, strict.Diagnostics[0].Kind)
	assert.Equal(t, lenient.Rows[0].Fuel, strict.Rows[0].Fuel)
	assert.Equal(t, 1, Summarize(strict).Diagnostics)
}

func TestDateWarnings(t *testing.T) {
	trips := []model.Trip{
		{ID: "newest", Date: "2024-03-01", SortOrder: 0},
		{ID: "misplaced", Date: "2024-04-01", SortOrder: 1},
		{ID: "oldest", Date: "2024-01-01", SortOrder: 2},
	}
	warnings := DateWarnings(trips)
	assert.True(t, warnings["misplaced"])
	assert.True(t, warnings["newest"])
	assert.False(t, warnings["oldest"])
}

func TestComputedRowsMatchImportedReference(t *testing.T) {
	data := generator.Showcase()
	grid := NewGrid(data.Vehicle, 2024, data.Trips, fuel.Options{})
	computed := grid.Computed()
	require.Len(t, computed, 18)

	reference := make([]reconcile.Row, len(computed))
	copy(reference, computed)
	report := reconcile.Compare(2024, reference, computed, reconcile.DefaultTolerances())
	assert.True(t, report.Clean())

	remaining := *computed[0].FuelRemaining + 0.6
	reference[0].FuelRemaining = &remaining
	report = reconcile.Compare(2024, reference, computed, reconcile.DefaultTolerances())
	require.Len(t, report.DerivedMismatches, 1)
	assert.Equal(t, reconcile.FieldFuelRemaining, report.DerivedMismatches[0].Field)
}

func TestRenderers(t *testing.T) {
	data := generator.Showcase()
	grid := NewGrid(data.Vehicle, 2024, data.Trips, fuel.Options{})

	var buf bytes.Buffer
	require.NoError(t, RenderGrid(&buf, grid))
	out := buf.String()
	assert.Contains(t, out, "Škoda Octavia (BA-123AB) 2024")
	assert.Contains(t, out, "Dunajská Streda")
	assert.Contains(t, out, "Level: ")

	buf.Reset()
	require.NoError(t, RenderPeriods(&buf, grid))
	assert.Contains(t, buf.String(), "over limit")
	assert.Equal(t, 5, strings.Count(strings.TrimSpace(buf.String()), "\n")+1)

	buf.Reset()
	require.NoError(t, RenderSummary(&buf, Summarize(grid)))
	assert.Contains(t, buf.String(), "Fuel cost: 128.80 EUR")
	assert.Contains(t, buf.String(), "Over legal limit")

	buf.Reset()
	report := reconcile.Compare(2024, make([]reconcile.Row, 70), make([]reconcile.Row, 69), reconcile.DefaultTolerances())
	require.NoError(t, RenderReconciliation(&buf, report))
	assert.Contains(t, buf.String(), "Row counts differ")

	buf.Reset()
	require.NoError(t, RenderVehicles(&buf, []model.Vehicle{data.Vehicle}))
	assert.Contains(t, buf.String(), "BA-123AB")
	assert.True(t, strings.HasPrefix(strings.Split(buf.String(), "\n")[2], "*"))

	buf.Reset()
	require.NoError(t, RenderSettings(&buf, data.Settings))
	assert.Contains(t, buf.String(), "Company: DEMO s.r.o.")
}

func TestResample(t *testing.T) {
	assert.Equal(t, []float64{1.5, 3.5}, Resample([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2}, Resample([]float64{1, 2}, 10))
	assert.Len(t, Sparkline(Resample(make([]float64, 300), 40)), 40)
}
