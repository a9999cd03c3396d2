package domain

import (
	"context"
	"errors"
	"time"
)

// Evaluation levels, ordered by severity.
const (
	LevelOK       = "ok"
	LevelWarning  = "warning"
	LevelExceeded = "exceeded"
)

// Trend directions relative to the previous window.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

type ConfigureThresholdRequest struct {
	Name         string `json:"name"`
	VerticalSlug string `json:"vertical_slug"`
	TerritoryID  string `json:"territory_id"`
	LimitMicros  int64  `json:"limit_micros"`
	WindowDays   int    `json:"window_days"`
	Active       *bool  `json:"active"`
}

type CheckThresholdsRequest struct {
	// AsOf anchors the trailing window. Zero means the current day.
	AsOf         time.Time
	VerticalSlug string
	TerritoryID  string
}

// ThresholdStatus is the evaluation of one threshold at a point in time.
type ThresholdStatus struct {
	Threshold      CostThreshold `json:"threshold"`
	WindowStart    time.Time     `json:"window_start"`
	WindowEnd      time.Time     `json:"window_end"`
	SpendMicros    int64         `json:"spend_micros"`
	PreviousMicros int64         `json:"previous_micros"`
	UtilizationPct float64       `json:"utilization_pct"`
	Level          string        `json:"level"`
	Trend          string        `json:"trend"`
}

type Service interface {
	Configure(ctx context.Context, req ConfigureThresholdRequest) (*CostThreshold, error)
	List(ctx context.Context) ([]CostThreshold, error)
	// Check evaluates every active threshold against rolled-up spend.
	Check(ctx context.Context, req CheckThresholdsRequest) ([]ThresholdStatus, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidLimit  = errors.New("invalid_limit")
	ErrInvalidWindow = errors.New("invalid_window")
)
