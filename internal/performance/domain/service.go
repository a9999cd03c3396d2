package domain

import (
	"context"
	"errors"
	"time"
)

type RecordPerformanceRequest struct {
	Service      string    `json:"service"`
	Operation    string    `json:"operation"`
	DurationMs   float64   `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorKind    string    `json:"error_kind"`
	VerticalSlug string    `json:"vertical_slug"`
	TerritoryID  *string   `json:"territory_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ListPerformanceRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	Service      string
	Operation    string
	VerticalSlug string
	TerritoryID  string
}

// ErrorBucket is one row of the error summary, most frequent first.
type ErrorBucket struct {
	ErrorKind string  `json:"error_kind"`
	Service   string  `json:"service"`
	Count     int64   `json:"count"`
	LastSeen  string  `json:"last_seen"`
	AvgMs     float64 `json:"avg_ms"`
}

type ErrorSummaryRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

type Service interface {
	Record(context.Context, RecordPerformanceRequest) (*PerformanceEvent, error)
	List(context.Context, ListPerformanceRequest) ([]PerformanceEvent, error)
	ErrorSummary(context.Context, ErrorSummaryRequest) ([]ErrorBucket, error)
}

var (
	ErrInvalidService   = errors.New("invalid_service")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrInvalidDuration  = errors.New("invalid_duration")
	ErrInvalidErrorKind = errors.New("invalid_error_kind")
	ErrInvalidDateRange = errors.New("invalid_date_range")
)
