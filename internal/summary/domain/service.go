package domain

import (
	"context"
	"errors"
	"time"
)

type GetSummariesRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	Service      string
	VerticalSlug string
	TerritoryID  string
}

type Service interface {
	// Run recomputes and replaces the summaries for one calendar day. A
	// zero date means yesterday in the configured rollup timezone.
	Run(ctx context.Context, date time.Time) ([]DailySummary, error)
	Get(ctx context.Context, req GetSummariesRequest) ([]DailySummary, error)
}

var (
	ErrInvalidDate      = errors.New("invalid_date")
	ErrRollupInProgress = errors.New("rollup_in_progress")
)
