package domain

import (
	"context"
	"errors"
	"time"
)

type ResolvePricingRequest struct {
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	ModelVersion string    `json:"model_version"`
	AsOf         time.Time `json:"as_of"`
}

type UpsertPricingRequest struct {
	Provider                         string     `json:"provider"`
	Model                            string     `json:"model"`
	ModelVersion                     string     `json:"model_version"`
	InputPricePerMillionMicros       int64      `json:"input_price_per_million_micros"`
	OutputPricePerMillionMicros      int64      `json:"output_price_per_million_micros"`
	CachedInputPricePerMillionMicros *int64     `json:"cached_input_price_per_million_micros"`
	EffectiveFrom                    *time.Time `json:"effective_from"`
	Notes                            string     `json:"notes"`
}

type ListPricingRequest struct {
	Provider string `form:"provider"`
	Model    string `form:"model"`
}

type Service interface {
	// Resolve returns the active price version with the latest
	// effective_from at or before the as-of timestamp.
	Resolve(context.Context, ResolvePricingRequest) (*ModelPricing, error)
	// Upsert appends a new price version; prior rows are never mutated.
	Upsert(context.Context, UpsertPricingRequest) (*ModelPricing, error)
	List(context.Context, ListPricingRequest) ([]ModelPricing, error)
}

var (
	ErrPricingNotFound     = errors.New("pricing_not_found")
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrInvalidModel        = errors.New("invalid_model")
	ErrInvalidInputPrice   = errors.New("invalid_input_price")
	ErrInvalidOutputPrice  = errors.New("invalid_output_price")
	ErrInvalidCachedPrice  = errors.New("invalid_cached_price")
	ErrInvalidTokenCount   = errors.New("invalid_token_count")
	ErrInvalidCachedTokens = errors.New("invalid_cached_tokens")
)
