package domain

import (
	"context"
	"errors"
	"time"
)

type UpdateConversionRequest struct {
	CorrelationID string     `json:"correlation_id"`
	Flags         StageFlags `json:"flags"`
	VerticalSlug  string     `json:"vertical_slug"`
	TerritoryID   *string    `json:"territory_id"`

	// RequireExisting rejects updates for unknown correlation ids instead
	// of auto-creating the funnel state.
	RequireExisting bool `json:"require_existing"`
}

type GetFunnelRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	VerticalSlug string
	TerritoryID  string
}

// FunnelCounts reports how many correlation ids reached each stage in the
// window, plus step-to-step conversion rates (0 when the previous step is
// empty).
type FunnelCounts struct {
	Sent           int64   `json:"sent"`
	Opened         int64   `json:"opened"`
	Clicked        int64   `json:"clicked"`
	Replied        int64   `json:"replied"`
	Converted      int64   `json:"converted"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	ReplyRate      float64 `json:"reply_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

type Service interface {
	// UpdateConversion applies stage flags atomically per correlation id.
	UpdateConversion(context.Context, UpdateConversionRequest) (*OutreachFunnelState, error)
	GetFunnel(context.Context, GetFunnelRequest) (*FunnelCounts, error)
}

var (
	ErrInvalidCorrelation = errors.New("invalid_correlation_id")
	ErrUnknownCorrelation = errors.New("unknown_correlation")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
)
