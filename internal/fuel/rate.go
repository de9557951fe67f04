package fuel

// Rate is a consumption rate in l/100km assigned to a trip.
type Rate struct {
	Value float64
	// Estimated is set when the rate is the vehicle's reference rate rather
	// than one derived from a closing refuel.
	Estimated bool
}

// RateTable maps trip id to its period rate.
type RateTable map[string]Rate

// ConsumptionRate returns fuel / distance * 100, or false when distance is not positive.
func ConsumptionRate(fuel, distance float64) (float64, bool) {
	if distance <= 0 {
		return 0, false
	}
	return fuel / distance * 100, true
}

// Rates assigns a rate to every trip of every period. Trips in a closed
// period with zero distance get no entry.
func Rates(periods []Period, referenceRate float64) RateTable {
	table := make(RateTable)
	for _, p := range periods {
		rate := Rate{Value: referenceRate, Estimated: true}
		if !p.Open {
			value, ok := ConsumptionRate(p.TotalFuelAdded, p.TotalDistance)
			if !ok {
				continue
			}
			rate = Rate{Value: value}
		}
		for _, id := range p.TripIDs {
			table[id] = rate
		}
	}
	return table
}

// FuelConsumed returns the fuel used over distance at rate.
func FuelConsumed(distance, rate float64) float64 {
	return distance * rate / 100
}
