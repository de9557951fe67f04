package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/logbook/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "logbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seedVehicle(t *testing.T, st *Store) model.Vehicle {
	t.Helper()
	v, err := st.InsertVehicle(context.Background(), model.Vehicle{
		Name:          "Škoda Octavia",
		LicensePlate:  "BA-123AB",
		TankCapacity:  50,
		ReferenceRate: 5.1,
		Active:        true,
	})
	require.NoError(t, err)
	return v
}

func trip(date string, odometer, distance float64) model.Trip {
	return model.Trip{
		Date:        date,
		Origin:      "Bratislava",
		Destination: "Trnava",
		Distance:    distance,
		Odometer:    odometer,
		Purpose:     "stretnutie",
		FullTank:    true,
	}
}

func TestVehicleRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)
	require.NotEmpty(t, v.ID)

	got, err := st.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Škoda Octavia", got.Name)
	assert.Equal(t, 50.0, got.TankCapacity)
	assert.Equal(t, 5.1, got.ReferenceRate)
	assert.True(t, got.Active)

	active, err := st.ActiveVehicle(ctx)
	require.NoError(t, err)
	assert.Equal(t, v.ID, active.ID)

	_, err = st.GetVehicle(ctx, "missing")
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	all, err := st.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActiveVehicleEmptyStore(t *testing.T) {
	st := openTestStore(t)
	_, err := st.ActiveVehicle(context.Background())
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestTripsOptionalFieldsSurvive(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)

	in := trip("2024-01-15", 45350, 28)
	in.VehicleID = v.ID
	in.FuelAdded = model.Float(19.6)
	in.FuelCost = model.Float(31.36)
	in.OtherCostsNote = model.String("parkovné")
	in.FullTank = false
	_, err := st.InsertTrip(ctx, in)
	require.NoError(t, err)

	trips, err := st.ListTripsForYear(ctx, v.ID, 2024)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	got := trips[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 19.6, *got.FuelAdded)
	assert.Equal(t, 31.36, *got.FuelCost)
	assert.Nil(t, got.OtherCosts)
	assert.Equal(t, "parkovné", *got.OtherCostsNote)
	assert.False(t, got.FullTank)
}

func TestInsertTripUnknownVehicle(t *testing.T) {
	st := openTestStore(t)
	in := trip("2024-01-15", 45350, 28)
	in.VehicleID = "missing"
	_, err := st.InsertTrip(context.Background(), in)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.db.SetMaxOpenConns(3)

	conns := make([]*sql.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := st.db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		var enabled int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled)

		_, err := conn.ExecContext(ctx, `INSERT INTO trips (id, vehicle_id, date, origin, destination,
			distance_km, odometer, purpose, created_at, updated_at)
			VALUES ('t1', 'missing', '2024-01-15', 'a', 'b', 1, 1, 'p', 'now', 'now')`)
		assert.Error(t, err)
	}
	for _, conn := range conns {
		require.NoError(t, conn.Close())
	}
}

func TestDSNAppendsPragma(t *testing.T) {
	assert.Equal(t, "/tmp/a.db?_pragma=foreign_keys(1)", dsn("/tmp/a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)", dsn("file:a.db?mode=rwc"))
}

func TestListTripsChronological(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)

	for _, tr := range []model.Trip{
		trip("2024-02-01", 45500, 10),
		trip("2024-01-10", 45200, 10),
		trip("2024-01-10", 45100, 10),
		trip("2023-12-30", 45000, 10),
	} {
		tr.VehicleID = v.ID
		_, err := st.InsertTrip(ctx, tr)
		require.NoError(t, err)
	}

	trips, err := st.ListTripsForYear(ctx, v.ID, 2024)
	require.NoError(t, err)
	require.Len(t, trips, 3)
	assert.Equal(t, 45100.0, trips[0].Odometer)
	assert.Equal(t, 45200.0, trips[1].Odometer)
	assert.Equal(t, 45500.0, trips[2].Odometer)

	before, err := st.ListTripsBefore(ctx, v.ID, 2024)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "2023-12-30", before[0].Date)

	years, err := st.ListYears(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023}, years)
}

func TestReplaceYearTripsIsYearScoped(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)

	for _, tr := range []model.Trip{
		trip("2023-06-01", 40000, 10),
		trip("2024-01-10", 45000, 10),
		trip("2024-03-10", 45100, 10),
		trip("2025-01-02", 50000, 10),
	} {
		tr.VehicleID = v.ID
		_, err := st.InsertTrip(ctx, tr)
		require.NoError(t, err)
	}

	deleted, err := st.ReplaceYearTrips(ctx, v.ID, 2024, []model.Trip{trip("2024-05-05", 46000, 20)})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	trips2024, err := st.ListTripsForYear(ctx, v.ID, 2024)
	require.NoError(t, err)
	require.Len(t, trips2024, 1)
	assert.Equal(t, "2024-05-05", trips2024[0].Date)
	assert.Equal(t, v.ID, trips2024[0].VehicleID)

	trips2023, err := st.ListTripsForYear(ctx, v.ID, 2023)
	require.NoError(t, err)
	assert.Len(t, trips2023, 1)
	trips2025, err := st.ListTripsForYear(ctx, v.ID, 2025)
	require.NoError(t, err)
	assert.Len(t, trips2025, 1)
}

func TestReplaceYearTripsRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)

	existing := trip("2024-01-10", 45000, 10)
	existing.VehicleID = v.ID
	_, err := st.InsertTrip(ctx, existing)
	require.NoError(t, err)

	dup := trip("2024-02-01", 45100, 10)
	dup.ID = "same-id"
	_, err = st.ReplaceYearTrips(ctx, v.ID, 2024, []model.Trip{dup, dup})
	require.Error(t, err)

	trips, err := st.ListTripsForYear(ctx, v.ID, 2024)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "2024-01-10", trips[0].Date)
}

func TestReplaceYearTripsUnknownVehicle(t *testing.T) {
	st := openTestStore(t)
	_, err := st.ReplaceYearTrips(context.Background(), "missing", 2024, []model.Trip{trip("2024-01-01", 1, 1)})
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestRoutesCountUsage(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	v := seedVehicle(t, st)

	back := trip("2024-01-11", 45100, 55)
	back.Origin, back.Destination = "Trnava", "Bratislava"
	noDistance := trip("2024-01-12", 45100, 0)
	_, err := st.ReplaceYearTrips(ctx, v.ID, 2024, []model.Trip{
		trip("2024-01-10", 45000, 55),
		back,
		trip("2024-01-13", 45200, 56),
		noDistance,
	})
	require.NoError(t, err)

	routes, err := st.ListRoutes(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "Bratislava", routes[0].Origin)
	assert.Equal(t, 2, routes[0].UsageCount)
	assert.Equal(t, 56.0, routes[0].Distance)
	assert.Equal(t, 1, routes[1].UsageCount)
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	got, err := st.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "služobná cesta", got.BufferTripPurpose)

	require.NoError(t, st.SaveSettings(ctx, model.Settings{CompanyName: "DEMO s.r.o.", CompanyID: "12345678", BufferTripPurpose: "obchod"}))
	require.NoError(t, st.SaveSettings(ctx, model.Settings{CompanyName: "DEMO 2 s.r.o.", CompanyID: "87654321", BufferTripPurpose: "obchod"}))

	got, err = st.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DEMO 2 s.r.o.", got.CompanyName)
	assert.Equal(t, "87654321", got.CompanyID)
	assert.False(t, got.UpdatedAt.IsZero())
}
