package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSummaryService(t *testing.T, fakeNow time.Time) (summarydomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&usagedomain.UsageEvent{},
		&performancedomain.PerformanceEvent{},
		&outreachdomain.OutreachFunnelState{},
		&summarydomain.DailySummary{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(fakeNow),
		Config: config.Config{
			RollupTimezone:     "UTC",
			StatsReservoirSize: 1000,
		},
	})
	return svc, db, node
}

func seedUsageEvent(t *testing.T, db *gorm.DB, node *snowflake.Node, service string, occurredAt time.Time, costMicros int64) {
	t.Helper()
	require.NoError(t, db.Create(&usagedomain.UsageEvent{
		ID:               node.Generate(),
		Service:          service,
		Provider:         "openai",
		Model:            "gpt-4o",
		PromptTokens:     1000,
		CompletionTokens: 200,
		CostMicros:       costMicros,
		VerticalSlug:     "healthcare",
		OccurredAt:       occurredAt,
		CreatedAt:        occurredAt,
	}).Error)
}

func seedPerformanceEvent(t *testing.T, db *gorm.DB, node *snowflake.Node, service string, occurredAt time.Time, durationMs float64, success bool) {
	t.Helper()
	errorKind := ""
	if !success {
		errorKind = "timeout"
	}
	require.NoError(t, db.Create(&performancedomain.PerformanceEvent{
		ID:           node.Generate(),
		Service:      service,
		Operation:    "run",
		DurationMs:   durationMs,
		Success:      success,
		ErrorKind:    errorKind,
		VerticalSlug: "healthcare",
		OccurredAt:   occurredAt,
		CreatedAt:    occurredAt,
	}).Error)
}

func TestRunAggregatesPerPartition(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, node := setupSummaryService(t, now)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	seedUsageEvent(t, db, node, "qualifier", day.Add(2*time.Hour), 1_000_000)
	seedUsageEvent(t, db, node, "qualifier", day.Add(3*time.Hour), 2_000_000)
	seedUsageEvent(t, db, node, "composer", day.Add(4*time.Hour), 500_000)
	// Outside the window, must not count.
	seedUsageEvent(t, db, node, "qualifier", day.AddDate(0, 0, 1), 9_000_000)

	seedPerformanceEvent(t, db, node, "qualifier", day.Add(2*time.Hour), 100, true)
	seedPerformanceEvent(t, db, node, "qualifier", day.Add(3*time.Hour), 300, false)

	rows, err := svc.Run(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byService := map[string]summarydomain.DailySummary{}
	for _, row := range rows {
		byService[row.Service] = row
	}

	qualifier := byService["qualifier"]
	assert.Equal(t, int64(3_000_000), qualifier.CostMicros)
	assert.Equal(t, int64(2000), qualifier.PromptTokens)
	assert.Equal(t, int64(1), qualifier.ErrorCount)
	assert.Equal(t, "healthcare", qualifier.VerticalSlug)
	assert.Equal(t, day, qualifier.Date)

	composer := byService["composer"]
	assert.Equal(t, int64(500_000), composer.CostMicros)
	assert.Equal(t, int64(0), composer.ErrorCount)
}

func TestRunReplacesInsteadOfAccumulating(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, node := setupSummaryService(t, now)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	seedUsageEvent(t, db, node, "qualifier", day.Add(time.Hour), 1_000_000)

	first, err := svc.Run(context.Background(), day)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	var count int64
	require.NoError(t, db.Model(&summarydomain.DailySummary{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored summarydomain.DailySummary
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, int64(1_000_000), stored.CostMicros)
}

func TestRunPicksUpLateEventsOnRerun(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, node := setupSummaryService(t, now)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	seedUsageEvent(t, db, node, "qualifier", day.Add(time.Hour), 1_000_000)
	_, err := svc.Run(context.Background(), day)
	require.NoError(t, err)

	// A late event lands after the first rollup.
	seedUsageEvent(t, db, node, "qualifier", day.Add(20*time.Hour), 250_000)
	rows, err := svc.Run(context.Background(), day)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(1_250_000), rows[0].CostMicros)
	assert.Equal(t, int64(2), rows[0].EventCount)
}

func TestRunCountsFunnelStagesUnderOutreach(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, _ := setupSummaryService(t, now)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	opened := day.Add(3 * time.Hour)
	require.NoError(t, db.Create(&outreachdomain.OutreachFunnelState{
		CorrelationID: "corr-1",
		Sent:          true,
		SentAt:        &opened,
		Opened:        true,
		OpenedAt:      &opened,
		VerticalSlug:  "healthcare",
		CreatedAt:     opened,
		UpdatedAt:     opened,
	}).Error)
	require.NoError(t, db.Create(&outreachdomain.OutreachFunnelState{
		CorrelationID: "corr-2",
		Sent:          true,
		SentAt:        &opened,
		VerticalSlug:  "healthcare",
		CreatedAt:     opened,
		UpdatedAt:     opened,
	}).Error)

	rows, err := svc.Run(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "outreach", row.Service)
	assert.Equal(t, "healthcare", row.VerticalSlug)
	assert.Equal(t, int64(2), row.SentCount)
	assert.Equal(t, int64(1), row.OpenedCount)
	assert.Equal(t, int64(0), row.ConvertedCount)
}

func TestRunDefaultsToYesterday(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, node := setupSummaryService(t, now)

	yesterday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedUsageEvent(t, db, node, "qualifier", yesterday.Add(time.Hour), 750_000)

	rows, err := svc.Run(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, yesterday, rows[0].Date)
}

func TestRunRejectsFutureDate(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, _, _ := setupSummaryService(t, now)

	_, err := svc.Run(context.Background(), now.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, summarydomain.ErrInvalidDate)
}

func TestGetFiltersByDateAndService(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	svc, db, node := setupSummaryService(t, now)

	day1 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedUsageEvent(t, db, node, "qualifier", day1.Add(time.Hour), 100_000)
	seedUsageEvent(t, db, node, "composer", day2.Add(time.Hour), 200_000)

	_, err := svc.Run(context.Background(), day1)
	require.NoError(t, err)
	_, err = svc.Run(context.Background(), day2)
	require.NoError(t, err)

	rows, err := svc.Get(context.Background(), summarydomain.GetSummariesRequest{
		StartDate: day2,
		EndDate:   day2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "composer", rows[0].Service)

	rows, err = svc.Get(context.Background(), summarydomain.GetSummariesRequest{
		Service: "qualifier",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(day1))
}
