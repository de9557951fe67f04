package reconcile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 {
	return &v
}

func baseRow() Row {
	return Row{
		Date:        "2024-01-15",
		Origin:      "Bratislava",
		Destination: "Senec",
		Distance:    55.0,
		Odometer:    45110,
		Purpose:     "návrat",
	}
}

func TestCompareCountMismatch(t *testing.T) {
	reference := make([]Row, 70)
	computed := make([]Row, 69)
	for i := range reference {
		reference[i] = baseRow()
	}
	for i := range computed {
		computed[i] = baseRow()
		computed[i].Origin = "elsewhere"
	}

	report := Compare(2024, reference, computed, DefaultTolerances())
	assert.True(t, report.CountMismatch)
	assert.Equal(t, 70, report.ReferenceCount)
	assert.Equal(t, 69, report.ComputedCount)
	assert.Empty(t, report.FixedMismatches)
	assert.Empty(t, report.DerivedMismatches)
	assert.False(t, report.Clean())
}

func TestCompareFixedNumericTolerance(t *testing.T) {
	ref := baseRow()
	within := baseRow()
	within.Distance = 55.004
	outside := baseRow()
	outside.Distance = 55.02

	report := Compare(2024, []Row{ref, ref}, []Row{within, outside}, DefaultTolerances())
	require.Len(t, report.FixedMismatches, 1)
	m := report.FixedMismatches[0]
	assert.Equal(t, 2, m.Row)
	assert.Equal(t, FieldDistance, m.Field)
	assert.Equal(t, 55.0, m.Reference)
	assert.Equal(t, 55.02, m.Computed)
}

func TestCompareFixedToleranceBoundaryIsInclusive(t *testing.T) {
	ref := baseRow()
	edge := baseRow()
	edge.Distance = 55.01
	report := Compare(2024, []Row{ref}, []Row{edge}, DefaultTolerances())
	assert.Empty(t, report.FixedMismatches)
}

func TestCompareOptionalFixedFields(t *testing.T) {
	bothNil := baseRow()
	refOnly := baseRow()
	refOnly.FuelAdded = f(19.6)
	equal := baseRow()
	equal.FuelCost = f(31.36)

	reference := []Row{bothNil, refOnly, equal}
	computed := []Row{baseRow(), baseRow(), equal}

	report := Compare(2024, reference, computed, DefaultTolerances())
	require.Len(t, report.FixedMismatches, 1)
	m := report.FixedMismatches[0]
	assert.Equal(t, 2, m.Row)
	assert.Equal(t, FieldFuelAdded, m.Field)
	assert.Equal(t, 19.6, m.Reference)
	assert.Nil(t, m.Computed)
}

func TestCompareTextFieldsExact(t *testing.T) {
	ref := baseRow()
	comp := baseRow()
	comp.Purpose = "Návrat"
	comp.Date = "2024-01-16"

	report := Compare(2024, []Row{ref}, []Row{comp}, DefaultTolerances())
	require.Len(t, report.FixedMismatches, 2)
	assert.Equal(t, FieldDate, report.FixedMismatches[0].Field)
	assert.Equal(t, FieldPurpose, report.FixedMismatches[1].Field)
}

func TestCompareDerivedTolerances(t *testing.T) {
	ref := baseRow()
	ref.ConsumptionRate = f(5.60)
	ref.FuelConsumed = f(3.08)
	ref.FuelRemaining = f(40.0)

	near := baseRow()
	near.ConsumptionRate = f(5.64)
	near.FuelConsumed = f(3.15)
	near.FuelRemaining = f(40.4)

	far := baseRow()
	far.ConsumptionRate = f(5.70)
	far.FuelConsumed = f(3.30)
	far.FuelRemaining = f(41.0)

	report := Compare(2024, []Row{ref, ref}, []Row{near, far}, DefaultTolerances())
	assert.Empty(t, report.FixedMismatches)
	require.Len(t, report.DerivedMismatches, 3)
	fields := []string{}
	for _, m := range report.DerivedMismatches {
		assert.Equal(t, 2, m.Row)
		fields = append(fields, m.Field)
	}
	assert.Equal(t, []string{FieldConsumptionRate, FieldFuelConsumed, FieldFuelRemaining}, fields)
	assert.InDelta(t, 0.1, report.DerivedMismatches[0].Difference, 1e-12)
	assert.InDelta(t, 1.0, report.DerivedMismatches[2].Difference, 1e-12)
}

func TestCompareDerivedSkipsMissingValues(t *testing.T) {
	ref := baseRow()
	ref.ConsumptionRate = f(5.6)
	comp := baseRow()
	comp.FuelRemaining = f(12)

	report := Compare(2024, []Row{ref}, []Row{comp}, DefaultTolerances())
	assert.True(t, report.Clean())
}

func TestCompareNonFiniteValuesMismatch(t *testing.T) {
	ref := baseRow()
	ref.Distance = math.NaN()
	ref.FuelAdded = f(math.Inf(1))
	ref.FuelRemaining = f(math.NaN())
	comp := baseRow()
	comp.FuelAdded = f(20)
	comp.FuelRemaining = f(40)

	var report Report
	require.NotPanics(t, func() {
		report = Compare(2024, []Row{ref}, []Row{comp}, DefaultTolerances())
	})
	require.Len(t, report.FixedMismatches, 2)
	assert.Equal(t, FieldDistance, report.FixedMismatches[0].Field)
	assert.Equal(t, FieldFuelAdded, report.FixedMismatches[1].Field)
	require.Len(t, report.DerivedMismatches, 1)
	assert.Equal(t, FieldFuelRemaining, report.DerivedMismatches[0].Field)
}

func TestCompareNonFiniteToleranceIsExact(t *testing.T) {
	ref := baseRow()
	ref.FuelConsumed = f(3.08)
	comp := baseRow()
	comp.Distance = 55.001
	comp.FuelConsumed = f(3.09)

	tol := Tolerances{Fixed: math.NaN(), ConsumptionRate: -1, FuelConsumed: math.Inf(1), FuelRemaining: 0}
	var report Report
	require.NotPanics(t, func() {
		report = Compare(2024, []Row{ref}, []Row{comp}, tol)
	})
	require.Len(t, report.FixedMismatches, 1)
	require.Len(t, report.DerivedMismatches, 1)
	assert.InDelta(t, 0.01, report.DerivedMismatches[0].Difference, 1e-12)

	assert.True(t, Compare(2024, []Row{ref}, []Row{ref}, tol).Clean())
}

func TestCompareIsDeterministic(t *testing.T) {
	ref := baseRow()
	ref.ConsumptionRate = f(5.0)
	comp := baseRow()
	comp.ConsumptionRate = f(6.0)
	comp.Origin = "Trnava"

	first := Compare(2023, []Row{ref}, []Row{comp}, DefaultTolerances())
	second := Compare(2023, []Row{ref}, []Row{comp}, DefaultTolerances())
	assert.Equal(t, first, second)
}
