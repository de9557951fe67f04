// Package fuel reconstructs fuel periods, consumption rates, and tank levels from a trip log.
package fuel

import (
	"sort"

	"github.com/verte-zerg/logbook/internal/model"
)

// Period is a run of consecutive trips ending in a full-tank refuel, or the
// trailing run after the last such refuel.
type Period struct {
	Index          int
	TripIDs        []string
	TotalDistance  float64
	TotalFuelAdded float64
	Open           bool
}

// Chronological returns a copy of trips ordered by date, then odometer.
// SortOrder is a display key and is ignored here.
func Chronological(trips []model.Trip) []model.Trip {
	out := append([]model.Trip(nil), trips...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].Odometer < out[j].Odometer
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// segmenter is the fold state: periods closed so far plus the one being filled.
type segmenter struct {
	closed []Period
	buffer Period
}

func (s segmenter) step(trip model.Trip) segmenter {
	s.buffer.TripIDs = append(s.buffer.TripIDs, trip.ID)
	s.buffer.TotalDistance += trip.Distance
	if trip.IsFillUp() {
		s.buffer.TotalFuelAdded += *trip.FuelAdded
	}
	if !trip.ClosesPeriod() {
		return s
	}
	s.buffer.Index = len(s.closed)
	s.closed = append(s.closed, s.buffer)
	s.buffer = Period{}
	return s
}

func (s segmenter) finish() []Period {
	if len(s.buffer.TripIDs) == 0 {
		return s.closed
	}
	s.buffer.Index = len(s.closed)
	s.buffer.Open = true
	return append(s.closed, s.buffer)
}

// Segment partitions chronologically ordered trips into fuel periods.
func Segment(trips []model.Trip) []Period {
	var s segmenter
	for _, trip := range trips {
		s = s.step(trip)
	}
	return s.finish()
}

// PeriodOf maps each trip id to the index of its enclosing period.
func PeriodOf(periods []Period) map[string]int {
	out := make(map[string]int)
	for _, p := range periods {
		for _, id := range p.TripIDs {
			out[id] = p.Index
		}
	}
	return out
}
