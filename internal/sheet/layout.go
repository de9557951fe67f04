package sheet

// Layout maps logbook fields to column positions. It is the only place that
// knows where a value sits in a row. A negative column means "not present".
type Layout struct {
	FirstDataRow int

	Date              int
	Origin            int
	Destination       int
	Odometer          int
	Purpose           int
	FuelAdded         int
	FuelCost          int
	ReferenceConsumed int
	Distance          int
	ReferenceRemain   int
	OtherCostsNote    int
	OtherCosts        int
	ReferenceRate     int
}

// DefaultLayout is the column layout of the yearly "Kniha" sheets.
// Row 0 is the title block, row 1 the column labels, row 2 the initial state.
func DefaultLayout() Layout {
	return Layout{
		FirstDataRow:      3,
		Date:              0,
		Origin:            1,
		Destination:       2,
		Odometer:          3,
		Purpose:           4,
		FuelAdded:         6,
		FuelCost:          7,
		ReferenceConsumed: 8,
		Distance:          10,
		ReferenceRemain:   11,
		OtherCostsNote:    12,
		OtherCosts:        13,
		ReferenceRate:     14,
	}
}

// cells wraps one raw row behind named accessors.
type cells struct {
	raw    []string
	layout Layout
}

func (c cells) at(col int) string {
	if col < 0 || col >= len(c.raw) {
		return ""
	}
	return c.raw[col]
}

func (c cells) date() string           { return c.at(c.layout.Date) }
func (c cells) origin() string         { return text(c.at(c.layout.Origin)) }
func (c cells) destination() string    { return text(c.at(c.layout.Destination)) }
func (c cells) purpose() string        { return text(c.at(c.layout.Purpose)) }
func (c cells) odometer() *float64     { return number(c.at(c.layout.Odometer)) }
func (c cells) distance() *float64     { return number(c.at(c.layout.Distance)) }
func (c cells) fuelAdded() *float64    { return number(c.at(c.layout.FuelAdded)) }
func (c cells) fuelCost() *float64     { return number(c.at(c.layout.FuelCost)) }
func (c cells) otherCosts() *float64   { return number(c.at(c.layout.OtherCosts)) }
func (c cells) refConsumed() *float64  { return number(c.at(c.layout.ReferenceConsumed)) }
func (c cells) refRemaining() *float64 { return number(c.at(c.layout.ReferenceRemain)) }
func (c cells) refRate() *float64      { return number(c.at(c.layout.ReferenceRate)) }

func (c cells) otherCostsNote() *string {
	note := text(c.at(c.layout.OtherCostsNote))
	if note == "" {
		return nil
	}
	return &note
}
