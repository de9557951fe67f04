package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/logbook/internal/fuel"
	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
)

// RenderGrid prints the trip table of a year grid.
func RenderGrid(w io.Writer, g Grid) error {
	if _, err := fmt.Fprintf(w, "%s (%s) %d\n", g.Vehicle.Name, g.Vehicle.LicensePlate, g.Year); err != nil {
		return err
	}
	if len(g.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No trips found.")
		return err
	}

	headers := []string{"#", "Date", "From", "To", "Km", "Odometer", "Purpose", "Fuel", "Cost", "l/100km", "Used", "Left", ""}
	rows := make([][]string, 0, len(g.Rows))
	for i, r := range g.Rows {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Trip.Date,
			r.Trip.Origin,
			r.Trip.Destination,
			formatFloat(r.Trip.Distance, 0),
			formatFloat(r.Trip.Odometer, 0),
			r.Trip.Purpose,
			formatOptional(r.Trip.FuelAdded, 2),
			formatOptional(r.Trip.FuelCost, 2),
			formatFloat(r.Fuel.Rate, 2),
			formatFloat(r.Fuel.Consumed, 2),
			formatFloat(r.Fuel.Remaining, 2),
			flags(r),
		})
	}
	rightAlign := map[int]bool{0: true, 4: true, 5: true, 7: true, 8: true, 9: true, 10: true, 11: true}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Flags: ~ estimated rate  ! over limit  D date order"); err != nil {
		return err
	}
	if err := RenderDiagnostics(w, g.Diagnostics); err != nil {
		return err
	}
	return RenderLevels(w, g, terminalWidth())
}

// RenderLevels prints a sparkline of the fuel level across the year.
func RenderLevels(w io.Writer, g Grid, width int) error {
	if len(g.Rows) == 0 {
		return nil
	}
	const label = "Level: "
	levels := Resample(g.Levels(), width-len(label))
	_, err := fmt.Fprintf(w, "%s%s\n", label, Sparkline(levels))
	return err
}

// RenderDiagnostics prints clamp diagnostics collected in strict mode.
func RenderDiagnostics(w io.Writer, diags []fuel.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Diagnostics (%d)\n", len(diags)); err != nil {
		return err
	}
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "  #%d %s: %.2f clamped to %.2f\n", d.Position+1, d.Kind, d.Raw, d.Clamped); err != nil {
			return err
		}
	}
	return nil
}

// RenderPeriods prints one line per fuel period.
func RenderPeriods(w io.Writer, g Grid) error {
	if len(g.Periods) == 0 {
		_, err := fmt.Fprintln(w, "No periods found.")
		return err
	}
	headers := []string{"Period", "Trips", "Km", "Fuel", "l/100km", "Margin", "State"}
	rows := make([][]string, 0, len(g.Periods))
	for _, p := range g.Periods {
		rate, margin, state := "-", "-", "closed"
		if p.Open {
			state = "open"
			rate = formatFloat(g.Vehicle.ReferenceRate, 2) + "~"
		} else if r, ok := fuel.ConsumptionRate(p.TotalFuelAdded, p.TotalDistance); ok {
			rate = formatFloat(r, 2)
			m := fuel.MarginPercent(r, g.Vehicle.ReferenceRate)
			margin = fmt.Sprintf("%+.1f%%", m)
			if !fuel.WithinLegalLimit(m) {
				state = "over limit"
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Index + 1),
			strconv.Itoa(len(p.TripIDs)),
			formatFloat(p.TotalDistance, 0),
			formatFloat(p.TotalFuelAdded, 2),
			rate,
			margin,
			state,
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}))
}

// RenderSummary prints the year summary.
func RenderSummary(w io.Writer, s Summary) error {
	margin := "-"
	if s.Margin != nil {
		margin = fmt.Sprintf("%+.1f%%", *s.Margin)
	}
	lines := []string{
		fmt.Sprintf("Summary %d", s.Year),
		fmt.Sprintf("Trips: %d (fill-ups: %d)", s.Trips, s.FillUps),
		fmt.Sprintf("Distance: %.0f km", s.TotalDistance),
		fmt.Sprintf("Fuel: %.2f l", s.TotalFuel),
		fmt.Sprintf("Fuel cost: %s EUR", s.TotalFuelCost.StringFixed(2)),
		fmt.Sprintf("Other costs: %s EUR", s.TotalOtherCosts.StringFixed(2)),
		fmt.Sprintf("Avg consumption: %.2f l/100km", s.AverageRate),
		fmt.Sprintf("Last consumption: %.2f l/100km", s.LastRate),
		fmt.Sprintf("Fuel at start: %.2f l", s.StartLevel),
		fmt.Sprintf("Fuel remaining: %.2f l", s.FuelRemaining),
		fmt.Sprintf("Worst margin: %s", margin),
	}
	if s.OverLimit {
		lines = append(lines, fmt.Sprintf("Over legal limit: add %.1f km to reach %.0f%%", s.BufferKm, fuel.TargetMargin*100))
	}
	if s.Warnings > 0 {
		lines = append(lines, fmt.Sprintf("Warnings: %d", s.Warnings))
	}
	if s.Diagnostics > 0 {
		lines = append(lines, fmt.Sprintf("Diagnostics: %d", s.Diagnostics))
	}
	return writeLines(w, append(lines, ""))
}

// RenderReconciliation prints a comparison report.
func RenderReconciliation(w io.Writer, r reconcile.Report) error {
	if _, err := fmt.Fprintf(w, "Reconciliation %d: %d reference rows, %d computed rows\n", r.Year, r.ReferenceCount, r.ComputedCount); err != nil {
		return err
	}
	if r.CountMismatch {
		_, err := fmt.Fprintln(w, "Row counts differ; fields were not compared.")
		return err
	}
	if r.Clean() {
		_, err := fmt.Fprintln(w, "No mismatches.")
		return err
	}
	if len(r.FixedMismatches) > 0 {
		if _, err := fmt.Fprintf(w, "Recorded fields (%d)\n", len(r.FixedMismatches)); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.FixedMismatches))
		for _, m := range r.FixedMismatches {
			rows = append(rows, []string{strconv.Itoa(m.Row), m.Field, formatAny(m.Reference), formatAny(m.Computed)})
		}
		if err := writeLines(w, formatTable([]string{"Row", "Field", "Reference", "Computed"}, rows, map[int]bool{0: true})); err != nil {
			return err
		}
	}
	if len(r.DerivedMismatches) > 0 {
		if _, err := fmt.Fprintf(w, "Derived fields (%d)\n", len(r.DerivedMismatches)); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.DerivedMismatches))
		for _, m := range r.DerivedMismatches {
			rows = append(rows, []string{
				strconv.Itoa(m.Row),
				m.Field,
				formatFloat(m.Reference, 2),
				formatFloat(m.Computed, 2),
				formatFloat(m.Difference, 3),
			})
		}
		if err := writeLines(w, formatTable([]string{"Row", "Field", "Reference", "Computed", "Diff"}, rows, map[int]bool{0: true, 2: true, 3: true, 4: true})); err != nil {
			return err
		}
	}
	return nil
}

// RenderRoutes prints remembered routes.
func RenderRoutes(w io.Writer, routes []model.Route) error {
	if len(routes) == 0 {
		_, err := fmt.Fprintln(w, "No routes found.")
		return err
	}
	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, []string{r.Origin, r.Destination, formatFloat(r.Distance, 0), strconv.Itoa(r.UsageCount)})
	}
	return writeLines(w, formatTable([]string{"From", "To", "Km", "Used"}, rows, map[int]bool{2: true, 3: true}))
}

// RenderVehicles prints the vehicle list.
func RenderVehicles(w io.Writer, vehicles []model.Vehicle) error {
	if len(vehicles) == 0 {
		_, err := fmt.Fprintln(w, "No vehicles found.")
		return err
	}
	rows := make([][]string, 0, len(vehicles))
	for _, v := range vehicles {
		active := ""
		if v.Active {
			active = "*"
		}
		rows = append(rows, []string{
			active,
			v.ID,
			v.Name,
			v.LicensePlate,
			formatFloat(v.TankCapacity, 1),
			formatFloat(v.ReferenceRate, 2),
			formatFloat(v.InitialOdometer, 0),
		})
	}
	headers := []string{"", "ID", "Name", "Plate", "Tank", "l/100km", "Odometer"}
	return writeLines(w, formatTable(headers, rows, map[int]bool{4: true, 5: true, 6: true}))
}

// RenderSettings prints company settings.
func RenderSettings(w io.Writer, s model.Settings) error {
	return writeLines(w, []string{
		"Company: " + s.CompanyName,
		"Company ID: " + s.CompanyID,
		"Buffer trip purpose: " + s.BufferTripPurpose,
	})
}

func flags(r Row) string {
	var b strings.Builder
	if r.Fuel.Estimated {
		b.WriteByte('~')
	}
	if r.ConsumptionWarning {
		b.WriteByte('!')
	}
	if r.DateWarning {
		b.WriteByte('D')
	}
	return b.String()
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v, prec)
}

func formatAny(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
