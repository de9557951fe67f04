package fuel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/logbook/internal/generator"
)

func TestMarginPercent(t *testing.T) {
	assert.InDelta(t, 20, MarginPercent(6.0, 5.0), 1e-9)
	assert.InDelta(t, -10, MarginPercent(4.5, 5.0), 1e-9)
	assert.Equal(t, 0.0, MarginPercent(6.0, 0))
}

func TestWithinLegalLimit(t *testing.T) {
	assert.True(t, WithinLegalLimit(20))
	assert.True(t, WithinLegalLimit(20.0005))
	assert.False(t, WithinLegalLimit(20.01))
}

func TestBufferKm(t *testing.T) {
	// 50 l over 800 km at 5.0 reference: 6.25 l/100km, target 5.9.
	buffer := BufferKm(50, 800, 5.0, 0.18)
	assert.InDelta(t, 50*100/5.9-800, buffer, 1e-9)
	assert.Equal(t, 0.0, BufferKm(40, 800, 5.0, 0.18))
	assert.Equal(t, 0.0, BufferKm(40, 800, 0, 0.18))
}

func TestWorstPeriodShowcase(t *testing.T) {
	data := generator.Showcase()
	periods := Segment(Chronological(data.Trips))
	worst := WorstPeriod(periods, data.Vehicle.ReferenceRate)

	assert.InDelta(t, 28.9/436*100, worst.Rate, 1e-9)
	assert.True(t, worst.OverLimit)
	assert.NotNil(t, worst.Period)
	assert.Equal(t, 1, worst.Period.Index)
	assert.False(t, WithinLegalLimit(worst.Margin))
}

func TestClosedTotalsSkipsOpenPeriod(t *testing.T) {
	periods := []Period{
		{TotalFuelAdded: 10, TotalDistance: 200},
		{TotalFuelAdded: 0, TotalDistance: 50, Open: true},
	}
	fuel, km := ClosedTotals(periods)
	assert.Equal(t, 10.0, fuel)
	assert.Equal(t, 200.0, km)
}
