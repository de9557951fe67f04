package fuel

const (
	// LegalLimitPercent is the allowed overconsumption against the reference rate.
	LegalLimitPercent = 20.0
	// TargetMargin is the margin buffer trips aim for, below the legal limit.
	TargetMargin  = 0.18
	marginEpsilon = 0.001
)

// MarginPercent returns how far rate is above the reference rate, in percent.
func MarginPercent(rate, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return (rate/reference - 1) * 100
}

// WithinLegalLimit reports whether a margin is at most the legal limit.
func WithinLegalLimit(margin float64) bool {
	return margin <= LegalLimitPercent+marginEpsilon
}

// OverLimit reports whether a rate exceeds 120% of the reference rate.
func OverLimit(rate, reference float64) bool {
	if reference <= 0 {
		return false
	}
	return rate > reference*(1+LegalLimitPercent/100)
}

// BufferKm returns the extra distance needed so that liters over km+buffer
// lands at the target margin. Zero when already below it.
func BufferKm(liters, km, reference, targetMargin float64) float64 {
	if reference <= 0 {
		return 0
	}
	targetRate := reference * (1 + targetMargin)
	required := liters * 100 / targetRate
	if buffer := required - km; buffer > 0 {
		return buffer
	}
	return 0
}

// PeriodStats describes the closed period with the highest consumption.
type PeriodStats struct {
	Rate      float64
	Margin    float64
	OverLimit bool
	Period    *Period
}

// WorstPeriod finds the closed period with the highest derived rate.
func WorstPeriod(periods []Period, reference float64) PeriodStats {
	var worst PeriodStats
	if reference <= 0 {
		return worst
	}
	for i := range periods {
		p := periods[i]
		if p.Open {
			continue
		}
		rate, ok := ConsumptionRate(p.TotalFuelAdded, p.TotalDistance)
		if !ok || rate <= worst.Rate {
			continue
		}
		worst.Rate = rate
		worst.Period = &periods[i]
	}
	worst.Margin = MarginPercent(worst.Rate, reference)
	worst.OverLimit = OverLimit(worst.Rate, reference)
	return worst
}

// ClosedTotals sums fuel and distance over closed periods only.
func ClosedTotals(periods []Period) (fuel, distance float64) {
	for _, p := range periods {
		if p.Open {
			continue
		}
		fuel += p.TotalFuelAdded
		distance += p.TotalDistance
	}
	return fuel, distance
}
