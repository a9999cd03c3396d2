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
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPerformanceService(t *testing.T, fakeNow time.Time) (performancedomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&performancedomain.PerformanceEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(fakeNow),
	})
	return svc, db
}

func TestRecordPerformanceErrorKindRules(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := setupPerformanceService(t, now)
	ctx := context.Background()

	// A failure must name its error kind.
	_, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
		Service:    "qualifier",
		Operation:  "score_lead",
		DurationMs: 120,
		Success:    false,
	})
	assert.ErrorIs(t, err, performancedomain.ErrInvalidErrorKind)

	// A success must not carry one.
	_, err = svc.Record(ctx, performancedomain.RecordPerformanceRequest{
		Service:    "qualifier",
		Operation:  "score_lead",
		DurationMs: 120,
		Success:    true,
		ErrorKind:  "timeout",
	})
	assert.ErrorIs(t, err, performancedomain.ErrInvalidErrorKind)

	event, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
		Service:    "qualifier",
		Operation:  "score_lead",
		DurationMs: 120,
		Success:    false,
		ErrorKind:  "timeout",
	})
	require.NoError(t, err)
	assert.Equal(t, "timeout", event.ErrorKind)
	assert.Equal(t, now, event.OccurredAt)
}

func TestErrorSummaryOrdersByFrequency(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := setupPerformanceService(t, now)
	ctx := context.Background()

	record := func(kind string, times int) {
		for i := 0; i < times; i++ {
			_, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
				Service:    "qualifier",
				Operation:  "score_lead",
				DurationMs: float64(100 + i),
				Success:    false,
				ErrorKind:  kind,
			})
			require.NoError(t, err)
		}
	}
	record("timeout", 3)
	record("rate_limited", 5)
	record("bad_response", 1)

	_, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
		Service:    "qualifier",
		Operation:  "score_lead",
		DurationMs: 80,
		Success:    true,
	})
	require.NoError(t, err)

	buckets, err := svc.ErrorSummary(ctx, performancedomain.ErrorSummaryRequest{
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "rate_limited", buckets[0].ErrorKind)
	assert.Equal(t, int64(5), buckets[0].Count)
	assert.Equal(t, "timeout", buckets[1].ErrorKind)
	assert.Equal(t, "bad_response", buckets[2].ErrorKind)
}

func TestErrorSummaryBreaksFrequencyTiesByKind(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := setupPerformanceService(t, now)
	ctx := context.Background()

	for _, kind := range []string{"timeout", "bad_response", "rate_limited"} {
		for i := 0; i < 2; i++ {
			_, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
				Service:    "qualifier",
				Operation:  "score_lead",
				DurationMs: 120,
				Success:    false,
				ErrorKind:  kind,
			})
			require.NoError(t, err)
		}
	}

	buckets, err := svc.ErrorSummary(ctx, performancedomain.ErrorSummaryRequest{
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	// Equal counts come back alphabetical by kind.
	assert.Equal(t, "bad_response", buckets[0].ErrorKind)
	assert.Equal(t, "rate_limited", buckets[1].ErrorKind)
	assert.Equal(t, "timeout", buckets[2].ErrorKind)
}

func TestListPerformanceFilters(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := setupPerformanceService(t, now)
	ctx := context.Background()

	for _, service := range []string{"qualifier", "outreach"} {
		_, err := svc.Record(ctx, performancedomain.RecordPerformanceRequest{
			Service:    service,
			Operation:  "run",
			DurationMs: 50,
			Success:    true,
		})
		require.NoError(t, err)
	}

	events, err := svc.List(ctx, performancedomain.ListPerformanceRequest{
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		Service:   "qualifier",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "qualifier", events[0].Service)
}
