package weather

import "time"

const dayKeyLayout = "2006-01-02"

// DayKey returns the calendar date of ts (epoch seconds) in zone.
func DayKey(ts int64, zone *time.Location) string {
	return time.Unix(ts, 0).In(zone).Format(dayKeyLayout)
}

// DailyAggregator folds forecast samples into per-day summaries.
// Days are kept in the order they are first seen; the first sample of a day
// fixes that day's condition and description, later samples only widen the
// temperature range.
type DailyAggregator struct {
	zone  *time.Location
	order []string
	days  map[string]*DaySummary
}

// NewDailyAggregator creates an aggregator bucketing by calendar date in zone.
// A nil zone means UTC.
func NewDailyAggregator(zone *time.Location) *DailyAggregator {
	if zone == nil {
		zone = time.UTC
	}
	return &DailyAggregator{
		zone: zone,
		days: make(map[string]*DaySummary),
	}
}

// Add folds one sample into its day.
func (a *DailyAggregator) Add(s ForecastSample) {
	key := DayKey(s.Timestamp, a.zone)

	day, ok := a.days[key]
	if !ok {
		t := time.Unix(s.Timestamp, 0).In(a.zone)
		a.days[key] = &DaySummary{
			DayKey:        key,
			Date:          time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.zone),
			TempMax:       s.TempMax,
			TempMin:       s.TempMin,
			ConditionCode: s.ConditionCode,
			Description:   s.Description,
		}
		a.order = append(a.order, key)
		return
	}

	if s.TempMax > day.TempMax {
		day.TempMax = s.TempMax
	}
	if s.TempMin < day.TempMin {
		day.TempMin = s.TempMin
	}
}

// Len returns the number of distinct days seen so far.
func (a *DailyAggregator) Len() int {
	return len(a.order)
}

// Summaries returns copies of the first n day summaries in first-seen order.
// n <= 0 returns every day.
func (a *DailyAggregator) Summaries(n int) []DaySummary {
	if n <= 0 || n > len(a.order) {
		n = len(a.order)
	}
	out := make([]DaySummary, 0, n)
	for _, key := range a.order[:n] {
		out = append(out, *a.days[key])
	}
	return out
}

// AggregateDaily collapses samples into at most maxDays daily summaries.
// maxDays <= 0 falls back to DefaultForecastDays.
func AggregateDaily(samples []ForecastSample, zone *time.Location, maxDays int) []DaySummary {
	if maxDays <= 0 {
		maxDays = DefaultForecastDays
	}
	agg := NewDailyAggregator(zone)
	for _, s := range samples {
		agg.Add(s)
	}
	return agg.Summaries(maxDays)
}
