// Package importer replaces one year of a vehicle's trips with spreadsheet rows.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/sheet"
)

// ErrNoUsableDate is returned when no record carries a parseable date.
var ErrNoUsableDate = errors.New("no usable date in source")

// Store is the persistence the importer needs.
type Store interface {
	GetVehicle(ctx context.Context, id string) (model.Vehicle, error)
	ReplaceYearTrips(ctx context.Context, vehicleID string, year int, trips []model.Trip) (int, error)
}

// Result summarizes one import.
type Result struct {
	Year      int `json:"year" yaml:"year"`
	Deleted   int `json:"deleted" yaml:"deleted"`
	Imported  int `json:"imported" yaml:"imported"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	OutOfYear int `json:"out_of_year" yaml:"out_of_year"`
}

// Importer runs replace-imports against a store.
type Importer struct {
	store Store
	log   logrus.FieldLogger
	newID func() string
}

// New builds an importer. A nil logger discards output.
func New(store Store, log logrus.FieldLogger) *Importer {
	if log == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		log = discard
	}
	return &Importer{store: store, log: log, newID: uuid.NewString}
}

// Import replaces the target year's trips of vehicleID with the usable
// records. The year comes from the first usable record. Preconditions are
// checked before the store is touched.
func (im *Importer) Import(ctx context.Context, vehicleID string, records []sheet.Record) (Result, error) {
	usable := sheet.Usable(records)
	if len(usable) == 0 {
		return Result{}, ErrNoUsableDate
	}
	year := usable[0].Year()
	if year == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrNoUsableDate, usable[0].RawDate)
	}
	if _, err := im.store.GetVehicle(ctx, vehicleID); err != nil {
		return Result{}, err
	}

	res := Result{Year: year, Skipped: len(records) - len(usable)}
	trips := make([]model.Trip, 0, len(usable))
	n := len(usable)
	for i, rec := range usable {
		trip := rec.Trip(vehicleID)
		trip.ID = im.newID()
		trip.SortOrder = n - 1 - i
		if rec.Year() != year {
			res.OutOfYear++
			im.log.WithFields(logrus.Fields{
				"row":  rec.Row,
				"date": rec.Date,
				"year": year,
			}).Warn("row dated outside import year")
		}
		trips = append(trips, trip)
	}

	deleted, err := im.store.ReplaceYearTrips(ctx, vehicleID, year, trips)
	if err != nil {
		return Result{}, fmt.Errorf("replace %d trips: %w", year, err)
	}
	res.Deleted = deleted
	res.Imported = len(trips)

	im.log.WithFields(logrus.Fields{
		"vehicle":  vehicleID,
		"year":     year,
		"deleted":  res.Deleted,
		"imported": res.Imported,
		"skipped":  res.Skipped,
	}).Info("import finished")
	return res, nil
}
