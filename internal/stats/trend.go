package stats

import "time"

const trendDateLayout = "2006-01-02"

// TrendPoint is one calendar day of spend.
type TrendPoint struct {
	Date       string `json:"date"`
	CostMicros int64  `json:"cost_micros"`
}

// FillDailyTrend builds a trailing window ending at today with exactly
// days entries, oldest first. Days absent from totals report zero so
// charts never show gaps.
func FillDailyTrend(days int, today time.Time, totals map[string]int64) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}

	start := today.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	points := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(trendDateLayout)
		points = append(points, TrendPoint{
			Date:       date,
			CostMicros: totals[date],
		})
	}
	return points
}
