package battery

import "math"

// Aggregate sums energy across readings. The percentage is rounded to one
// decimal place. Zero total capacity, including an empty slice, is an error.
func Aggregate(readings []Reading) (*AggregateStatus, error) {
	var full, now int64
	agg := &AggregateStatus{Details: make([]string, 0, len(readings))}
	for _, r := range readings {
		full += r.EnergyFullUWh
		now += r.EnergyNowUWh
		if r.Status == StatusDischarging {
			agg.AnyDischarging = true
		}
		agg.Details = append(agg.Details, r.Summary())
	}
	if full == 0 {
		return nil, ErrNoCapacity
	}
	agg.Percent = round1(float64(now) / float64(full) * 100)
	return agg, nil
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
