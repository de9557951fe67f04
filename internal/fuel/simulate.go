package fuel

import (
	"math"

	"github.com/verte-zerg/logbook/internal/model"
)

// ClampKind tells which bound a clamp hit.
type ClampKind string

const (
	// Underflow means the level went below an empty tank.
	Underflow ClampKind = "underflow"
	// Overflow means a partial refuel pushed the level past capacity.
	Overflow ClampKind = "overflow"
	// NonFinite means the level was not a number, e.g. from an infinite distance.
	NonFinite ClampKind = "non-finite"
)

// TripFuel holds the derived fuel values for one trip.
type TripFuel struct {
	TripID    string
	Rate      float64
	Estimated bool
	Consumed  float64
	Remaining float64
}

// Diagnostic records a clamp that changed the simulated level.
type Diagnostic struct {
	TripID   string
	Position int
	Kind     ClampKind
	Raw      float64
	Clamped  float64
}

// Options tune a simulation run.
type Options struct {
	// InitialLevel overrides the full tank assumed before the first trip.
	InitialLevel *float64
	// Strict collects a Diagnostic for every clamp. Levels are unaffected.
	Strict bool
}

// Simulation is the result of replaying a trip sequence.
type Simulation struct {
	Trips       []TripFuel
	Diagnostics []Diagnostic
	FinalLevel  float64
}

// ByTrip indexes the per-trip values by trip id.
func (s Simulation) ByTrip() map[string]TripFuel {
	out := make(map[string]TripFuel, len(s.Trips))
	for _, tf := range s.Trips {
		out[tf.TripID] = tf
	}
	return out
}

type tank struct {
	level    float64
	capacity float64
	position int
}

func (t tank) apply(trip model.Trip, rate Rate) (tank, TripFuel, []Diagnostic) {
	var diags []Diagnostic
	consumed := FuelConsumed(trip.Distance, rate.Value)
	level := t.level - consumed

	if trip.IsFillUp() {
		if trip.FullTank {
			level = t.capacity
		} else {
			level += *trip.FuelAdded
			if level > t.capacity {
				diags = append(diags, Diagnostic{TripID: trip.ID, Position: t.position, Kind: Overflow, Raw: level, Clamped: t.capacity})
				level = t.capacity
			}
		}
	}

	// math.Min and math.Max propagate NaN, so it is saturated to empty here.
	clamped := math.Max(0, math.Min(level, t.capacity))
	if math.IsNaN(level) {
		clamped = 0
	}
	if clamped != level {
		kind := Underflow
		switch {
		case math.IsNaN(level):
			kind = NonFinite
		case level > t.capacity:
			kind = Overflow
		}
		diags = append(diags, Diagnostic{TripID: trip.ID, Position: t.position, Kind: kind, Raw: level, Clamped: clamped})
	}

	next := tank{level: clamped, capacity: t.capacity, position: t.position + 1}
	return next, TripFuel{
		TripID:    trip.ID,
		Rate:      rate.Value,
		Estimated: rate.Estimated,
		Consumed:  consumed,
		Remaining: clamped,
	}, diags
}

// Simulate replays chronologically ordered trips against the vehicle's tank.
// Trips without a rate in the table use the vehicle's reference rate.
func Simulate(vehicle model.Vehicle, trips []model.Trip, rates RateTable, opts Options) Simulation {
	start := vehicle.TankCapacity
	if opts.InitialLevel != nil && !math.IsNaN(*opts.InitialLevel) {
		start = math.Max(0, math.Min(*opts.InitialLevel, vehicle.TankCapacity))
	}
	t := tank{level: start, capacity: vehicle.TankCapacity}
	sim := Simulation{Trips: make([]TripFuel, 0, len(trips))}
	for _, trip := range trips {
		rate, ok := rates[trip.ID]
		if !ok {
			rate = Rate{Value: vehicle.ReferenceRate, Estimated: true}
		}
		var tf TripFuel
		var diags []Diagnostic
		t, tf, diags = t.apply(trip, rate)
		sim.Trips = append(sim.Trips, tf)
		if opts.Strict {
			sim.Diagnostics = append(sim.Diagnostics, diags...)
		}
	}
	sim.FinalLevel = t.level
	return sim
}

// Run segments, rates, and simulates trips in one call. Trips are put into
// chronological order first.
func Run(vehicle model.Vehicle, trips []model.Trip, opts Options) ([]model.Trip, []Period, Simulation) {
	ordered := Chronological(trips)
	periods := Segment(ordered)
	rates := Rates(periods, vehicle.ReferenceRate)
	return ordered, periods, Simulate(vehicle, ordered, rates, opts)
}
