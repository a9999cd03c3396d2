package domain

import (
	"context"
	"errors"
	"time"

	"github.com/uaesivakumar/upr-os-sub012/pkg/db/pagination"
)

type RecordUsageRequest struct {
	Service          string         `json:"service"`
	Provider         string         `json:"provider"`
	Model            string         `json:"model"`
	ModelVersion     string         `json:"model_version"`
	PromptTokens     int64          `json:"prompt_tokens"`
	CompletionTokens int64          `json:"completion_tokens"`
	CachedTokens     int64          `json:"cached_tokens"`
	VerticalSlug     string         `json:"vertical_slug"`
	TerritoryID      *string        `json:"territory_id"`
	CorrelationID    string         `json:"correlation_id"`
	OccurredAt       time.Time      `json:"occurred_at"`
	Metadata         map[string]any `json:"metadata"`

	// AllowMissingPricing stamps a zero cost instead of rejecting when no
	// price row covers the event. The fallback is the caller's decision.
	AllowMissingPricing bool `json:"allow_missing_pricing"`
}

type PreviewCostRequest struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	ModelVersion     string    `json:"model_version"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	CachedTokens     int64     `json:"cached_tokens"`
	AsOf             time.Time `json:"as_of"`
}

type PreviewCostResponse struct {
	CostMicros       int64  `json:"cost_micros"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PricingVersionID string `json:"pricing_version_id"`
}

type ListUsageRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	Service      string
	Provider     string
	Model        string
	VerticalSlug string
	TerritoryID  string
	PageToken    string
	PageSize     int32
}

type ListUsageResponse struct {
	pagination.PageInfo
	UsageEvents []UsageEvent `json:"usage_events"`
}

type Service interface {
	Record(context.Context, RecordUsageRequest) (*UsageEvent, error)
	// PreviewCost runs the exact ingestion cost math without persisting.
	PreviewCost(context.Context, PreviewCostRequest) (*PreviewCostResponse, error)
	List(context.Context, ListUsageRequest) (ListUsageResponse, error)
}

var (
	ErrInvalidService          = errors.New("invalid_service")
	ErrInvalidPromptTokens     = errors.New("invalid_prompt_tokens")
	ErrInvalidCompletionTokens = errors.New("invalid_completion_tokens")
	ErrInvalidDateRange        = errors.New("invalid_date_range")
)
