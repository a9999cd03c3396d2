package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillDailyTrendZeroFills(t *testing.T) {
	today := time.Date(2026, 3, 30, 15, 30, 0, 0, time.UTC)
	totals := map[string]int64{
		"2026-03-30": 5_000_000,
		"2026-03-15": 1_250_000,
	}

	points := FillDailyTrend(30, today, totals)
	require.Len(t, points, 30)

	assert.Equal(t, "2026-03-01", points[0].Date)
	assert.Equal(t, "2026-03-30", points[29].Date)
	assert.Equal(t, int64(5_000_000), points[29].CostMicros)
	assert.Equal(t, int64(1_250_000), points[14].CostMicros)

	var nonZero int
	for _, p := range points {
		if p.CostMicros != 0 {
			nonZero++
		}
	}
	assert.Equal(t, 2, nonZero)
}

func TestFillDailyTrendIgnoresDatesOutsideWindow(t *testing.T) {
	today := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	totals := map[string]int64{"2026-01-01": 999}

	points := FillDailyTrend(7, today, totals)
	require.Len(t, points, 7)
	for _, p := range points {
		assert.Equal(t, int64(0), p.CostMicros)
	}
}

func TestFillDailyTrendNonPositiveDays(t *testing.T) {
	points := FillDailyTrend(0, time.Now(), nil)
	assert.Empty(t, points)
}
