package generator

import (
	"github.com/google/uuid"

	"github.com/verte-zerg/logbook/internal/model"
)

// Dataset is a complete demo logbook.
type Dataset struct {
	Settings model.Settings
	Vehicle  model.Vehicle
	Trips    []model.Trip
}

type showcaseTrip struct {
	date        string
	origin      string
	destination string
	km          float64
	fuel        float64
	cost        float64
	purpose     string
}

// Three fill-ups: 5.6, 6.63 (over the limit), and 5.82 l/100km.
var showcaseTrips = []showcaseTrip{
	{"2024-01-03", "Bratislava", "Trnava", 55, 0, 0, "stretnutie s klientom"},
	{"2024-01-03", "Trnava", "Bratislava", 55, 0, 0, "návrat"},
	{"2024-01-08", "Bratislava", "Nitra", 92, 0, 0, "obchodné rokovanie"},
	{"2024-01-08", "Nitra", "Bratislava", 92, 0, 0, "návrat"},
	{"2024-01-15", "Bratislava", "Senec", 28, 0, 0, "dodávka tovaru"},
	{"2024-01-15", "Senec", "Bratislava", 28, 19.6, 31.36, "návrat + tankovanie"},
	{"2024-02-05", "Bratislava", "Trenčín", 128, 0, 0, "školenie"},
	{"2024-02-05", "Trenčín", "Bratislava", 128, 0, 0, "návrat"},
	{"2024-02-12", "Bratislava", "Malacky", 42, 0, 0, "audit"},
	{"2024-02-12", "Malacky", "Bratislava", 42, 0, 0, "návrat"},
	{"2024-02-20", "Bratislava", "Dunajská Streda", 48, 0, 0, "stretnutie"},
	{"2024-02-20", "Dunajská Streda", "Bratislava", 48, 28.9, 46.24, "návrat + tankovanie"},
	{"2024-03-04", "Bratislava", "Žilina", 198, 0, 0, "konferencia"},
	{"2024-03-04", "Žilina", "Bratislava", 198, 0, 0, "návrat"},
	{"2024-03-11", "Bratislava", "Pezinok", 22, 0, 0, "obhliadka"},
	{"2024-03-11", "Pezinok", "Bratislava", 22, 0, 0, "návrat"},
	{"2024-03-18", "Bratislava", "Trnava", 55, 0, 0, "stretnutie s klientom"},
	{"2024-03-18", "Trnava", "Bratislava", 55, 32.0, 51.20, "návrat + tankovanie"},
}

// Showcase returns a realistic Slovak business-car logbook for Jan-Mar 2024.
func Showcase() Dataset {
	vehicle := model.Vehicle{
		ID:              uuid.NewString(),
		Name:            "Škoda Octavia",
		LicensePlate:    "BA-123AB",
		TankCapacity:    50,
		ReferenceRate:   5.1,
		InitialOdometer: 45000,
		Active:          true,
	}
	trips := make([]model.Trip, 0, len(showcaseTrips))
	odometer := vehicle.InitialOdometer
	for i, st := range showcaseTrips {
		odometer += st.km
		trip := model.Trip{
			ID:          uuid.NewString(),
			VehicleID:   vehicle.ID,
			Date:        st.date,
			Origin:      st.origin,
			Destination: st.destination,
			Distance:    st.km,
			Odometer:    odometer,
			Purpose:     st.purpose,
			FullTank:    true,
			SortOrder:   len(showcaseTrips) - 1 - i,
		}
		if st.fuel > 0 {
			trip.FuelAdded = model.Float(st.fuel)
			trip.FuelCost = model.Float(st.cost)
		}
		trips = append(trips, trip)
	}
	return Dataset{
		Settings: model.Settings{
			CompanyName:       "DEMO s.r.o.",
			CompanyID:         "12345678",
			BufferTripPurpose: "služobná cesta",
		},
		Vehicle: vehicle,
		Trips:   trips,
	}
}
