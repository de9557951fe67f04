package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/logbook/internal/model"
)

const tripColumns = `id, vehicle_id, date, origin, destination, distance_km, odometer, purpose,
	fuel_liters, fuel_cost_eur, other_costs_eur, other_costs_note, full_tank, sort_order, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertTrip stores a single trip and records its route.
func (s *Store) InsertTrip(ctx context.Context, trip model.Trip) (model.Trip, error) {
	if err := requireVehicle(ctx, s.db, trip.VehicleID); err != nil {
		return model.Trip{}, err
	}
	now := time.Now().UTC()
	trip = stamp(trip, now)
	if err := insertTrip(ctx, s.db, trip); err != nil {
		return model.Trip{}, err
	}
	if err := upsertRoute(ctx, s.db, trip, now); err != nil {
		return model.Trip{}, err
	}
	return trip, nil
}

// ListTripsForYear returns the trips of one vehicle and year in chronological order.
func (s *Store) ListTripsForYear(ctx context.Context, vehicleID string, year int) ([]model.Trip, error) {
	return s.queryTrips(ctx,
		`SELECT `+tripColumns+` FROM trips
		 WHERE vehicle_id = ? AND strftime('%Y', date) = ?
		 ORDER BY date ASC, odometer ASC`,
		vehicleID, yearKey(year),
	)
}

// ListTripsBefore returns all trips of a vehicle dated before the given year.
func (s *Store) ListTripsBefore(ctx context.Context, vehicleID string, year int) ([]model.Trip, error) {
	return s.queryTrips(ctx,
		`SELECT `+tripColumns+` FROM trips
		 WHERE vehicle_id = ? AND date < ?
		 ORDER BY date ASC, odometer ASC`,
		vehicleID, fmt.Sprintf("%04d-01-01", year),
	)
}

// ListYears returns the distinct years with trips for a vehicle, newest first.
func (s *Store) ListYears(ctx context.Context, vehicleID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(strftime('%Y', date) AS INTEGER) AS y FROM trips
		 WHERE vehicle_id = ? AND strftime('%Y', date) IS NOT NULL
		 ORDER BY y DESC`,
		vehicleID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return years, nil
}

// ReplaceYearTrips deletes every trip of the vehicle dated in year and inserts
// trips in their place. Both steps share one transaction, so a failed insert
// leaves the previous trips untouched. It returns the number of deleted trips.
func (s *Store) ReplaceYearTrips(ctx context.Context, vehicleID string, year int, trips []model.Trip) (deleted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = requireVehicle(ctx, tx, vehicleID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM trips WHERE vehicle_id = ? AND strftime('%Y', date) = ?`,
		vehicleID, yearKey(year),
	)
	if err != nil {
		return 0, fmt.Errorf("delete %d trips: %w", year, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for i, trip := range trips {
		trip.VehicleID = vehicleID
		trip = stamp(trip, now)
		if err = insertTrip(ctx, tx, trip); err != nil {
			return 0, fmt.Errorf("insert trip %d: %w", i, err)
		}
		if err = upsertRoute(ctx, tx, trip, now); err != nil {
			return 0, fmt.Errorf("record route for trip %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ListRoutes returns remembered routes for a vehicle, most used first.
func (s *Store) ListRoutes(ctx context.Context, vehicleID string) ([]model.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vehicle_id, origin, destination, distance_km, usage_count, last_used
		 FROM routes WHERE vehicle_id = ?
		 ORDER BY usage_count DESC, last_used DESC, origin ASC`,
		vehicleID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var routes []model.Route
	for rows.Next() {
		var r model.Route
		var lastUsed string
		if err := rows.Scan(&r.ID, &r.VehicleID, &r.Origin, &r.Destination, &r.Distance, &r.UsageCount, &lastUsed); err != nil {
			return nil, err
		}
		r.LastUsed = parseTime(lastUsed)
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func requireVehicle(ctx context.Context, q queryRower, vehicleID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM vehicles WHERE id = ?`, vehicleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	return err
}

func (s *Store) queryTrips(ctx context.Context, query string, args ...any) ([]model.Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var trips []model.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

func scanTrip(sc scanner) (model.Trip, error) {
	var t model.Trip
	var fuel, cost, other sql.NullFloat64
	var note sql.NullString
	var full int
	var createdAt, updatedAt string
	if err := sc.Scan(&t.ID, &t.VehicleID, &t.Date, &t.Origin, &t.Destination, &t.Distance, &t.Odometer, &t.Purpose,
		&fuel, &cost, &other, &note, &full, &t.SortOrder, &createdAt, &updatedAt); err != nil {
		return model.Trip{}, err
	}
	t.FuelAdded = nullFloat(fuel)
	t.FuelCost = nullFloat(cost)
	t.OtherCosts = nullFloat(other)
	if note.Valid {
		t.OtherCostsNote = &note.String
	}
	t.FullTank = full != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func insertTrip(ctx context.Context, ex execer, t model.Trip) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO trips (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.VehicleID, t.Date, t.Origin, t.Destination, t.Distance, t.Odometer, t.Purpose,
		t.FuelAdded, t.FuelCost, t.OtherCosts, t.OtherCostsNote, boolInt(t.FullTank), t.SortOrder,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return err
}

func upsertRoute(ctx context.Context, ex execer, t model.Trip, now time.Time) error {
	origin := strings.TrimSpace(t.Origin)
	destination := strings.TrimSpace(t.Destination)
	if origin == "" || destination == "" || t.Distance <= 0 {
		return nil
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO routes (id, vehicle_id, origin, destination, distance_km, usage_count, last_used)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT(vehicle_id, origin, destination) DO UPDATE SET
			distance_km = excluded.distance_km,
			usage_count = routes.usage_count + 1,
			last_used = excluded.last_used`,
		uuid.NewString(), t.VehicleID, origin, destination, t.Distance, formatTime(now),
	)
	return err
}

func stamp(t model.Trip, now time.Time) model.Trip {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
