// Package model defines shared data structures.
package model

import "time"

// DateLayout is the storage and display format for trip dates.
const DateLayout = "2006-01-02"

// Vehicle is a car with a fuel tank of fixed capacity.
type Vehicle struct {
	ID              string
	Name            string
	LicensePlate    string
	TankCapacity    float64
	ReferenceRate   float64 // l/100km from the technical passport
	InitialOdometer float64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Trip is one logbook row.
type Trip struct {
	ID             string
	VehicleID      string
	Date           string // YYYY-MM-DD
	Origin         string
	Destination    string
	Distance       float64
	Odometer       float64
	Purpose        string
	FuelAdded      *float64
	FuelCost       *float64
	FullTank       bool
	OtherCosts     *float64
	OtherCostsNote *string
	SortOrder      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Year returns the calendar year of the trip date, or 0 if the date is malformed.
func (t Trip) Year() int {
	parsed, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return 0
	}
	return parsed.Year()
}

// IsFillUp reports whether fuel was added on this trip.
func (t Trip) IsFillUp() bool {
	return t.FuelAdded != nil && *t.FuelAdded > 0
}

// ClosesPeriod reports whether the trip ends a fuel period.
func (t Trip) ClosesPeriod() bool {
	return t.FullTank && t.IsFillUp()
}

// Route is a remembered origin/destination pair used for autocomplete.
type Route struct {
	ID          string
	VehicleID   string
	Origin      string
	Destination string
	Distance    float64
	UsageCount  int
	LastUsed    time.Time
}

// Settings holds company details printed on logbook exports.
type Settings struct {
	CompanyName       string
	CompanyID         string
	BufferTripPurpose string
	UpdatedAt         time.Time
}

// GridConfig defines options for building a year's trip grid.
type GridConfig struct {
	VehicleID string
	Year      int
	Carryover bool
	Strict    bool
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}
