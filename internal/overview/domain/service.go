// Package domain defines the read-side overview queries that power
// dashboards: grouped usage statistics, cost summaries and trends,
// performance health and a realtime snapshot.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/uaesivakumar/upr-os-sub012/internal/stats"
)

// Supported grouping dimensions for usage statistics.
const (
	GroupByService  = "service"
	GroupByProvider = "provider"
	GroupByModel    = "model"
	GroupByVertical = "vertical"
)

type UsageStatsRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	GroupBy      string
	Service      string
	VerticalSlug string
	TerritoryID  string
}

// GroupStats is one grouped slice of the usage window.
type GroupStats struct {
	Key string `json:"key"`
	stats.StatsBucket
}

type UsageStatsResponse struct {
	GroupBy string            `json:"group_by"`
	Groups  []GroupStats      `json:"groups"`
	Totals  stats.StatsBucket `json:"totals"`
}

type CostSummaryRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	VerticalSlug string
	TerritoryID  string
}

// CostShare is one group's slice of total spend.
type CostShare struct {
	Key        string  `json:"key"`
	CostMicros int64   `json:"cost_micros"`
	EventCount int64   `json:"event_count"`
	SharePct   float64 `json:"share_pct"`
}

type CostSummaryResponse struct {
	TotalCostMicros int64       `json:"total_cost_micros"`
	EventCount      int64       `json:"event_count"`
	ByService       []CostShare `json:"by_service"`
	ByModel         []CostShare `json:"by_model"`
}

type CostTrendRequest struct {
	// Days is the trailing window length, today included. Defaults to 30.
	Days         int
	VerticalSlug string
	TerritoryID  string
}

type PerformanceStatsRequest struct {
	StartDate   time.Time
	EndDate     time.Time
	Service     string
	TerritoryID string
}

type PerformanceStatsResponse struct {
	Services []GroupStats      `json:"services"`
	Totals   stats.StatsBucket `json:"totals"`
}

// RealtimeSnapshot covers the trailing 24 hours of raw events, rolled up
// on the fly rather than read from daily summaries.
type RealtimeSnapshot struct {
	WindowStart    time.Time         `json:"window_start"`
	WindowEnd      time.Time         `json:"window_end"`
	UsageEvents    int64             `json:"usage_events"`
	CostMicros     int64             `json:"cost_micros"`
	TotalTokens    int64             `json:"total_tokens"`
	Performance    stats.StatsBucket `json:"performance"`
	ActiveServices int64             `json:"active_services"`
}

// HealthReport describes how much data the store holds and how fresh it
// is, for wiring into readiness dashboards.
type HealthReport struct {
	UsageEvents       int64      `json:"usage_events"`
	PerformanceEvents int64      `json:"performance_events"`
	FunnelStates      int64      `json:"funnel_states"`
	DailySummaries    int64      `json:"daily_summaries"`
	PricingRows       int64      `json:"pricing_rows"`
	LastUsageAt       *time.Time `json:"last_usage_at,omitempty"`
	LastRollupAt      *time.Time `json:"last_rollup_at,omitempty"`
}

type Service interface {
	UsageStats(ctx context.Context, req UsageStatsRequest) (*UsageStatsResponse, error)
	CostSummary(ctx context.Context, req CostSummaryRequest) (*CostSummaryResponse, error)
	// CostTrend returns exactly req.Days points, zero-filled, oldest first.
	CostTrend(ctx context.Context, req CostTrendRequest) ([]stats.TrendPoint, error)
	PerformanceStats(ctx context.Context, req PerformanceStatsRequest) (*PerformanceStatsResponse, error)
	Realtime(ctx context.Context) (*RealtimeSnapshot, error)
	Health(ctx context.Context) (*HealthReport, error)
}

var (
	ErrInvalidGroupBy   = errors.New("invalid_group_by")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrInvalidDays      = errors.New("invalid_days")
)
