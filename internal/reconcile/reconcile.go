// Package reconcile compares a computed trip history with an independent reference record.
package reconcile

import (
	"math"

	"github.com/shopspring/decimal"
)

// Field names used in mismatch reports.
const (
	FieldDate            = "date"
	FieldOrigin          = "origin"
	FieldDestination     = "destination"
	FieldDistance        = "distance_km"
	FieldOdometer        = "odometer"
	FieldPurpose         = "purpose"
	FieldFuelAdded       = "fuel_liters"
	FieldFuelCost        = "fuel_cost"
	FieldConsumptionRate = "consumption_rate"
	FieldFuelConsumed    = "fuel_consumed"
	FieldFuelRemaining   = "fuel_remaining"
)

// Row is one trip as seen by either side of the comparison. Derived values
// are optional; a nil value on either side skips that check.
type Row struct {
	Date        string
	Origin      string
	Destination string
	Distance    float64
	Odometer    float64
	Purpose     string
	FuelAdded   *float64
	FuelCost    *float64

	ConsumptionRate *float64
	FuelConsumed    *float64
	FuelRemaining   *float64
}

// Tolerances are the absolute differences accepted per field group.
type Tolerances struct {
	Fixed           float64 `json:"fixed" yaml:"fixed"`
	ConsumptionRate float64 `json:"consumption_rate" yaml:"consumption_rate"`
	FuelConsumed    float64 `json:"fuel_consumed" yaml:"fuel_consumed"`
	FuelRemaining   float64 `json:"fuel_remaining" yaml:"fuel_remaining"`
}

// DefaultTolerances returns the tolerances used by the reference spreadsheet checks.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Fixed:           0.01,
		ConsumptionRate: 0.05,
		FuelConsumed:    0.1,
		FuelRemaining:   0.5,
	}
}

// FixedMismatch is a difference in a recorded (non-derived) field.
type FixedMismatch struct {
	Row       int    `json:"row" yaml:"row"`
	Field     string `json:"field" yaml:"field"`
	Reference any    `json:"reference" yaml:"reference"`
	Computed  any    `json:"computed" yaml:"computed"`
}

// DerivedMismatch is a derived value outside its tolerance.
type DerivedMismatch struct {
	Row        int     `json:"row" yaml:"row"`
	Field      string  `json:"field" yaml:"field"`
	Reference  float64 `json:"reference" yaml:"reference"`
	Computed   float64 `json:"computed" yaml:"computed"`
	Difference float64 `json:"difference" yaml:"difference"`
}

// Report is the outcome of comparing one year.
type Report struct {
	Year              int               `json:"year" yaml:"year"`
	ReferenceCount    int               `json:"reference_count" yaml:"reference_count"`
	ComputedCount     int               `json:"computed_count" yaml:"computed_count"`
	CountMismatch     bool              `json:"count_mismatch" yaml:"count_mismatch"`
	FixedMismatches   []FixedMismatch   `json:"fixed_mismatches" yaml:"fixed_mismatches"`
	DerivedMismatches []DerivedMismatch `json:"derived_mismatches" yaml:"derived_mismatches"`
}

// Clean reports whether the comparison found nothing to flag.
func (r Report) Clean() bool {
	return !r.CountMismatch && len(r.FixedMismatches) == 0 && len(r.DerivedMismatches) == 0
}

// Compare aligns reference and computed rows by position. Rows must be in
// chronological order. A length difference stops the comparison.
func Compare(year int, reference, computed []Row, tol Tolerances) Report {
	report := Report{
		Year:              year,
		ReferenceCount:    len(reference),
		ComputedCount:     len(computed),
		FixedMismatches:   []FixedMismatch{},
		DerivedMismatches: []DerivedMismatch{},
	}
	if len(reference) != len(computed) {
		report.CountMismatch = true
		return report
	}
	for i := range reference {
		r, c := reference[i], computed[i]
		row := i + 1
		report.FixedMismatches = append(report.FixedMismatches, compareFixed(row, r, c, tol.Fixed)...)
		report.DerivedMismatches = append(report.DerivedMismatches, compareDerived(row, r, c, tol)...)
	}
	return report
}

func compareFixed(row int, r, c Row, tol float64) []FixedMismatch {
	var out []FixedMismatch
	text := func(field, rv, cv string) {
		if rv != cv {
			out = append(out, FixedMismatch{Row: row, Field: field, Reference: rv, Computed: cv})
		}
	}
	number := func(field string, rv, cv *float64) {
		if numbersEqual(rv, cv, tol) {
			return
		}
		out = append(out, FixedMismatch{Row: row, Field: field, Reference: value(rv), Computed: value(cv)})
	}

	text(FieldDate, r.Date, c.Date)
	text(FieldOrigin, r.Origin, c.Origin)
	text(FieldDestination, r.Destination, c.Destination)
	number(FieldDistance, &r.Distance, &c.Distance)
	number(FieldOdometer, &r.Odometer, &c.Odometer)
	text(FieldPurpose, r.Purpose, c.Purpose)
	number(FieldFuelAdded, r.FuelAdded, c.FuelAdded)
	number(FieldFuelCost, r.FuelCost, c.FuelCost)
	return out
}

func compareDerived(row int, r, c Row, tol Tolerances) []DerivedMismatch {
	var out []DerivedMismatch
	check := func(field string, rv, cv *float64, limit float64) {
		if rv == nil || cv == nil {
			return
		}
		diff, ok := within(*rv, *cv, limit)
		if ok {
			return
		}
		out = append(out, DerivedMismatch{
			Row:        row,
			Field:      field,
			Reference:  *rv,
			Computed:   *cv,
			Difference: diff,
		})
	}
	check(FieldConsumptionRate, r.ConsumptionRate, c.ConsumptionRate, tol.ConsumptionRate)
	check(FieldFuelConsumed, r.FuelConsumed, c.FuelConsumed, tol.FuelConsumed)
	check(FieldFuelRemaining, r.FuelRemaining, c.FuelRemaining, tol.FuelRemaining)
	return out
}

func numbersEqual(rv, cv *float64, tol float64) bool {
	if rv == nil || cv == nil {
		return rv == nil && cv == nil
	}
	_, ok := within(*rv, *cv, tol)
	return ok
}

// within reports whether |a-b| <= tol and returns |a-b|. Non-finite operands
// never match. A tolerance that is not a finite non-negative number counts as zero.
func within(a, b, tol float64) (float64, bool) {
	if !finite(a) || !finite(b) {
		return math.Abs(a - b), false
	}
	limit := decimal.Zero
	if finite(tol) && tol > 0 {
		limit = decimal.NewFromFloat(tol)
	}
	diff := difference(a, b)
	return diff.InexactFloat64(), diff.LessThanOrEqual(limit)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// difference is |a-b| computed on the shortest decimal form of each float,
// so 55.01 - 55.0 is exactly 0.01.
func difference(a, b float64) decimal.Decimal {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
}

func value(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
