package stats

import (
	"github.com/shopspring/decimal"

	"github.com/verte-zerg/logbook/internal/fuel"
)

// Summary aggregates a grid into the figures shown in the year header.
type Summary struct {
	Year            int             `json:"year" yaml:"year"`
	Trips           int             `json:"trips" yaml:"trips"`
	FillUps         int             `json:"fill_ups" yaml:"fill_ups"`
	TotalDistance   float64         `json:"total_distance_km" yaml:"total_distance_km"`
	TotalFuel       float64         `json:"total_fuel_liters" yaml:"total_fuel_liters"`
	TotalFuelCost   decimal.Decimal `json:"total_fuel_cost" yaml:"total_fuel_cost"`
	TotalOtherCosts decimal.Decimal `json:"total_other_costs" yaml:"total_other_costs"`
	AverageRate     float64         `json:"average_rate" yaml:"average_rate"`
	LastRate        float64         `json:"last_rate" yaml:"last_rate"`
	StartLevel      float64         `json:"start_level" yaml:"start_level"`
	FuelRemaining   float64         `json:"fuel_remaining" yaml:"fuel_remaining"`
	Margin          *float64        `json:"margin_percent,omitempty" yaml:"margin_percent,omitempty"`
	OverLimit       bool            `json:"over_limit" yaml:"over_limit"`
	BufferKm        float64         `json:"buffer_km" yaml:"buffer_km"`
	Warnings        int             `json:"warnings" yaml:"warnings"`
	Diagnostics     int             `json:"diagnostics" yaml:"diagnostics"`
}

// Summarize computes the year summary of a grid.
func Summarize(g Grid) Summary {
	ref := g.Vehicle.ReferenceRate
	sum := Summary{
		Year:            g.Year,
		Trips:           len(g.Rows),
		TotalFuelCost:   decimal.Zero,
		TotalOtherCosts: decimal.Zero,
		LastRate:        ref,
		StartLevel:      g.StartLevel,
		FuelRemaining:   g.FinalLevel,
		Diagnostics:     len(g.Diagnostics),
	}
	if len(g.Rows) == 0 {
		sum.FuelRemaining = g.StartLevel
	}

	fuelTotal := decimal.Zero
	for _, r := range g.Rows {
		t := r.Trip
		sum.TotalDistance += t.Distance
		if t.IsFillUp() {
			sum.FillUps++
			fuelTotal = fuelTotal.Add(decimal.NewFromFloat(*t.FuelAdded))
		}
		if t.FuelCost != nil {
			sum.TotalFuelCost = sum.TotalFuelCost.Add(decimal.NewFromFloat(*t.FuelCost))
		}
		if t.OtherCosts != nil {
			sum.TotalOtherCosts = sum.TotalOtherCosts.Add(decimal.NewFromFloat(*t.OtherCosts))
		}
		if r.DateWarning || r.ConsumptionWarning {
			sum.Warnings++
		}
	}
	sum.TotalFuel = fuelTotal.InexactFloat64()

	closedFuel, closedKm := fuel.ClosedTotals(g.Periods)
	if rate, ok := fuel.ConsumptionRate(closedFuel, closedKm); ok {
		sum.AverageRate = rate
	}
	for i := len(g.Periods) - 1; i >= 0; i-- {
		p := g.Periods[i]
		if p.Open {
			continue
		}
		if rate, ok := fuel.ConsumptionRate(p.TotalFuelAdded, p.TotalDistance); ok {
			sum.LastRate = rate
			break
		}
	}

	worst := fuel.WorstPeriod(g.Periods, ref)
	if closedKm > 0 && worst.Rate > 0 {
		margin := worst.Margin
		sum.Margin = &margin
	}
	sum.OverLimit = worst.OverLimit
	if worst.OverLimit {
		sum.BufferKm = fuel.BufferKm(closedFuel, closedKm, ref, fuel.TargetMargin)
	}
	return sum
}
