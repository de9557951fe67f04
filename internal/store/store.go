// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/logbook/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrVehicleNotFound is returned when a vehicle id does not exist.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Store wraps SQLite access for the logbook.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// dsn enables foreign keys on every pooled connection, not just the first.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			license_plate TEXT NOT NULL,
			tank_size_liters REAL NOT NULL,
			tp_consumption REAL NOT NULL,
			initial_odometer REAL NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
			date TEXT NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			distance_km REAL NOT NULL,
			odometer REAL NOT NULL,
			purpose TEXT NOT NULL,
			fuel_liters REAL,
			fuel_cost_eur REAL,
			other_costs_eur REAL,
			other_costs_note TEXT,
			full_tank INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS routes (
			id TEXT PRIMARY KEY,
			vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			distance_km REAL NOT NULL,
			usage_count INTEGER NOT NULL DEFAULT 1,
			last_used TEXT NOT NULL,
			UNIQUE(vehicle_id, origin, destination)
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL DEFAULT '',
			company_ico TEXT NOT NULL DEFAULT '',
			buffer_trip_purpose TEXT NOT NULL DEFAULT 'služobná cesta',
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trips_vehicle_date ON trips(vehicle_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_routes_vehicle ON routes(vehicle_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertVehicle stores a new vehicle. An empty id is replaced by a fresh one.
func (s *Store) InsertVehicle(ctx context.Context, v model.Vehicle) (model.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, name, license_plate, tank_size_liters, tp_consumption, initial_odometer, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.LicensePlate, v.TankCapacity, v.ReferenceRate, v.InitialOdometer,
		boolInt(v.Active), formatTime(now), formatTime(now),
	)
	if err != nil {
		return model.Vehicle{}, err
	}
	return v, nil
}

const vehicleColumns = `id, name, license_plate, tank_size_liters, tp_consumption, initial_odometer, is_active, created_at, updated_at`

// GetVehicle loads a vehicle by id.
func (s *Store) GetVehicle(ctx context.Context, id string) (model.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	return v, err
}

// ActiveVehicle returns the first active vehicle.
func (s *Store) ActiveVehicle(ctx context.Context) (model.Vehicle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE is_active = 1 ORDER BY created_at ASC LIMIT 1`)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

// ListVehicles returns all vehicles ordered by creation time.
func (s *Store) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(sc scanner) (model.Vehicle, error) {
	var v model.Vehicle
	var active int
	var createdAt, updatedAt string
	if err := sc.Scan(&v.ID, &v.Name, &v.LicensePlate, &v.TankCapacity, &v.ReferenceRate, &v.InitialOdometer, &active, &createdAt, &updatedAt); err != nil {
		return model.Vehicle{}, err
	}
	v.Active = active != 0
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return v, nil
}

// GetSettings returns the stored settings, or defaults when none are saved.
func (s *Store) GetSettings(ctx context.Context) (model.Settings, error) {
	var st model.Settings
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT company_name, company_ico, buffer_trip_purpose, updated_at FROM settings ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&st.CompanyName, &st.CompanyID, &st.BufferTripPurpose, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{BufferTripPurpose: "služobná cesta"}, nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	st.UpdatedAt = parseTime(updatedAt)
	return st, nil
}

// SaveSettings replaces the stored settings.
func (s *Store) SaveSettings(ctx context.Context, st model.Settings) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO settings (id, company_name, company_ico, buffer_trip_purpose, updated_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), st.CompanyName, st.CompanyID, st.BufferTripPurpose, formatTime(time.Now().UTC()),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func yearKey(year int) string {
	return strconv.Itoa(year)
}
