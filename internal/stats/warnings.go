package stats

import (
	"sort"

	"github.com/verte-zerg/logbook/internal/fuel"
	"github.com/verte-zerg/logbook/internal/model"
)

// DateWarnings flags trips whose date breaks the display order, where sort
// order 0 is the newest trip and dates must not increase with sort order.
func DateWarnings(trips []model.Trip) map[string]bool {
	bySortOrder := make([]model.Trip, len(trips))
	copy(bySortOrder, trips)
	sort.SliceStable(bySortOrder, func(i, j int) bool {
		return bySortOrder[i].SortOrder < bySortOrder[j].SortOrder
	})

	warnings := map[string]bool{}
	for i, trip := range bySortOrder {
		if i > 0 && trip.Date > bySortOrder[i-1].Date {
			warnings[trip.ID] = true
		}
		if i < len(bySortOrder)-1 && trip.Date < bySortOrder[i+1].Date {
			warnings[trip.ID] = true
		}
	}
	return warnings
}

// ConsumptionWarnings lists trips whose derived rate is over the legal limit.
func ConsumptionWarnings(g Grid) []string {
	var ids []string
	for _, r := range g.Rows {
		if fuel.OverLimit(r.Fuel.Rate, g.Vehicle.ReferenceRate) {
			ids = append(ids, r.Trip.ID)
		}
	}
	return ids
}
