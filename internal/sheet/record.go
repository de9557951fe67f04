package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/reconcile"
)

const totalMarker = "total"

// Kind classifies a data-area row.
type Kind int

const (
	// Data is a trip row with a usable date.
	Data Kind = iota
	// Blank has an empty date cell.
	Blank
	// Total is the footer sentinel row.
	Total
	// Invalid has a date cell that cannot be parsed.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Blank:
		return "blank"
	case Total:
		return "total"
	default:
		return "invalid"
	}
}

// Record is one row of the data area, already mapped to named fields.
type Record struct {
	Row     int // 0-based position in the source
	Kind    Kind
	RawDate string

	Date           string // YYYY-MM-DD
	Origin         string
	Destination    string
	Odometer       float64
	Purpose        string
	FuelAdded      *float64
	FuelCost       *float64
	Distance       float64
	OtherCosts     *float64
	OtherCostsNote *string

	// Values printed in the sheet, used only for validation.
	ReferenceRate      *float64
	ReferenceConsumed  *float64
	ReferenceRemaining *float64
}

// Usable reports whether the record is a trip row.
func (r Record) Usable() bool {
	return r.Kind == Data
}

// Year returns the year of the record date, or 0 when unusable.
func (r Record) Year() int {
	if !r.Usable() {
		return 0
	}
	parsed, err := time.Parse(model.DateLayout, r.Date)
	if err != nil {
		return 0
	}
	return parsed.Year()
}

// Trip converts the record into a trip for the given vehicle. Identity and
// sort order are left to the caller. The sheet has no full-tank column, so
// every refuel counts as a full tank.
func (r Record) Trip(vehicleID string) model.Trip {
	return model.Trip{
		VehicleID:      vehicleID,
		Date:           r.Date,
		Origin:         r.Origin,
		Destination:    r.Destination,
		Distance:       r.Distance,
		Odometer:       r.Odometer,
		Purpose:        r.Purpose,
		FuelAdded:      r.FuelAdded,
		FuelCost:       r.FuelCost,
		FullTank:       true,
		OtherCosts:     r.OtherCosts,
		OtherCostsNote: r.OtherCostsNote,
	}
}

// Reference converts the record into the reference side of a reconciliation.
func (r Record) Reference() reconcile.Row {
	return reconcile.Row{
		Date:            r.Date,
		Origin:          r.Origin,
		Destination:     r.Destination,
		Distance:        r.Distance,
		Odometer:        r.Odometer,
		Purpose:         r.Purpose,
		FuelAdded:       r.FuelAdded,
		FuelCost:        r.FuelCost,
		ConsumptionRate: r.ReferenceRate,
		FuelConsumed:    r.ReferenceConsumed,
		FuelRemaining:   r.ReferenceRemaining,
	}
}

// Read maps the data area of src into records. Reading stops after the
// total sentinel row.
func Read(src Source, layout Layout) ([]Record, error) {
	rows, err := src.Rows()
	if err != nil {
		return nil, err
	}
	var records []Record
	for i := layout.FirstDataRow; i < len(rows); i++ {
		rec := parseRow(i, cells{raw: rows[i], layout: layout})
		records = append(records, rec)
		if rec.Kind == Total {
			break
		}
	}
	return records, nil
}

// Usable filters records down to trip rows.
func Usable(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Usable() {
			out = append(out, r)
		}
	}
	return out
}

func parseRow(index int, c cells) Record {
	raw := strings.TrimSpace(c.date())
	rec := Record{Row: index, RawDate: raw}
	switch {
	case raw == "":
		rec.Kind = Blank
		return rec
	case strings.ToLower(raw) == totalMarker:
		rec.Kind = Total
		return rec
	}
	date, ok := ParseDate(raw)
	if !ok {
		rec.Kind = Invalid
		return rec
	}
	rec.Kind = Data
	rec.Date = date
	rec.Origin = c.origin()
	rec.Destination = c.destination()
	rec.Purpose = c.purpose()
	rec.Odometer = valueOrZero(c.odometer())
	rec.Distance = valueOrZero(c.distance())
	rec.FuelAdded = c.fuelAdded()
	rec.FuelCost = c.fuelCost()
	rec.OtherCosts = c.otherCosts()
	rec.OtherCostsNote = c.otherCostsNote()
	rec.ReferenceRate = c.refRate()
	rec.ReferenceConsumed = c.refConsumed()
	rec.ReferenceRemaining = c.refRemaining()
	return rec
}

// ParseDate normalizes DD.MM.YYYY, YYYY-MM-DD, and spreadsheet serial dates to YYYY-MM-DD.
func ParseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if parts := strings.Split(raw, "."); len(parts) == 3 {
		iso := fmt.Sprintf("%s-%s-%s", strings.TrimSpace(parts[2]), pad2(parts[1]), pad2(parts[0]))
		if _, err := time.Parse(model.DateLayout, iso); err == nil {
			return iso, true
		}
		return "", false
	}
	if n := len(model.DateLayout); len(raw) == n || (len(raw) > n && (raw[n] == 'T' || raw[n] == ' ')) {
		// A time of day may follow the date.
		if parsed, err := time.Parse(model.DateLayout, raw[:n]); err == nil {
			return parsed.Format(model.DateLayout), true
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && !math.IsInf(serial, 0) {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", false
		}
		return t.Format(model.DateLayout), true
	}
	return "", false
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func text(raw string) string {
	return strings.TrimSpace(raw)
}

func number(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
