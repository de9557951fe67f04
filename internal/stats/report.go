// Package stats builds year grids and summaries and renders them as text.
package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/logbook/internal/fuel"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
)

// TripSource is the read side of the store used to build grids.
type TripSource interface {
	GetVehicle(ctx context.Context, id string) (model.Vehicle, error)
	ListTripsForYear(ctx context.Context, vehicleID string, year int) ([]model.Trip, error)
	ListTripsBefore(ctx context.Context, vehicleID string, year int) ([]model.Trip, error)
}

// Row is one trip with its derived fuel values.
type Row struct {
	Trip               model.Trip
	Period             int
	Fuel               fuel.TripFuel
	DateWarning        bool
	ConsumptionWarning bool
}

// Grid is a year of trips with everything derived from them.
type Grid struct {
	Vehicle     model.Vehicle
	Year        int
	StartLevel  float64
	Rows        []Row
	Periods     []fuel.Period
	Diagnostics []fuel.Diagnostic
	FinalLevel  float64
}

// BuildGrid loads a vehicle year from the store and derives its grid.
func BuildGrid(ctx context.Context, src TripSource, cfg model.GridConfig) (Grid, error) {
	vehicle, err := src.GetVehicle(ctx, cfg.VehicleID)
	if err != nil {
		return Grid{}, err
	}
	trips, err := src.ListTripsForYear(ctx, cfg.VehicleID, cfg.Year)
	if err != nil {
		return Grid{}, fmt.Errorf("load %d trips: %w", cfg.Year, err)
	}
	opts := fuel.Options{Strict: cfg.Strict}
	if cfg.Carryover {
		earlier, err := src.ListTripsBefore(ctx, cfg.VehicleID, cfg.Year)
		if err != nil {
			return Grid{}, fmt.Errorf("load trips before %d: %w", cfg.Year, err)
		}
		if len(earlier) > 0 {
			_, _, prev := fuel.Run(vehicle, earlier, fuel.Options{})
			level := prev.FinalLevel
			opts.InitialLevel = &level
		}
	}
	return NewGrid(vehicle, cfg.Year, trips, opts), nil
}

// NewGrid derives a grid from trips already in memory.
func NewGrid(vehicle model.Vehicle, year int, trips []model.Trip, opts fuel.Options) Grid {
	ordered, periods, sim := fuel.Run(vehicle, trips, opts)
	periodOf := fuel.PeriodOf(periods)
	dateWarnings := DateWarnings(ordered)

	grid := Grid{
		Vehicle:     vehicle,
		Year:        year,
		StartLevel:  vehicle.TankCapacity,
		Rows:        make([]Row, len(ordered)),
		Periods:     periods,
		Diagnostics: sim.Diagnostics,
		FinalLevel:  sim.FinalLevel,
	}
	if opts.InitialLevel != nil {
		grid.StartLevel = *opts.InitialLevel
	}
	for i, trip := range ordered {
		tf := sim.Trips[i]
		grid.Rows[i] = Row{
			Trip:               trip,
			Period:             periodOf[trip.ID],
			Fuel:               tf,
			DateWarning:        dateWarnings[trip.ID],
			ConsumptionWarning: fuel.OverLimit(tf.Rate, vehicle.ReferenceRate),
		}
	}
	return grid
}

// Computed returns the grid as reconciliation rows, in chronological order.
func (g Grid) Computed() []reconcile.Row {
	out := make([]reconcile.Row, len(g.Rows))
	for i, r := range g.Rows {
		rate, consumed, remaining := r.Fuel.Rate, r.Fuel.Consumed, r.Fuel.Remaining
		out[i] = reconcile.Row{
			Date:            r.Trip.Date,
			Origin:          r.Trip.Origin,
			Destination:     r.Trip.Destination,
			Distance:        r.Trip.Distance,
			Odometer:        r.Trip.Odometer,
			Purpose:         r.Trip.Purpose,
			FuelAdded:       r.Trip.FuelAdded,
			FuelCost:        r.Trip.FuelCost,
			ConsumptionRate: &rate,
			FuelConsumed:    &consumed,
			FuelRemaining:   &remaining,
		}
	}
	return out
}

// Levels returns the remaining fuel after each trip.
func (g Grid) Levels() []float64 {
	out := make([]float64, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r.Fuel.Remaining
	}
	return out
}
