// Package domain contains the versioned model pricing catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ModelPricing is one price version for a (provider, model) pair. Rows are
// append-only: re-pricing inserts a new row with a later effective_from so
// historical cost attribution stays reproducible.
type ModelPricing struct {
	ID                               snowflake.ID `json:"id" gorm:"primaryKey"`
	Provider                         string       `json:"provider" gorm:"type:text;not null;index:ix_model_pricing_lookup,priority:1"`
	Model                            string       `json:"model" gorm:"type:text;not null;index:ix_model_pricing_lookup,priority:2"`
	ModelVersion                     string       `json:"model_version,omitempty" gorm:"type:text"`
	InputPricePerMillionMicros       int64        `json:"input_price_per_million_micros" gorm:"not null"`
	OutputPricePerMillionMicros      int64        `json:"output_price_per_million_micros" gorm:"not null"`
	CachedInputPricePerMillionMicros *int64       `json:"cached_input_price_per_million_micros,omitempty"`
	EffectiveFrom                    time.Time    `json:"effective_from" gorm:"not null;index:ix_model_pricing_lookup,priority:3"`
	Active                           bool         `json:"active" gorm:"not null;default:true"`
	Notes                            string       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt                        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt                        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ModelPricing) TableName() string { return "model_pricings" }

// CachedInputPrice falls back to the input price when no cache discount
// has been configured for the row.
func (p ModelPricing) CachedInputPrice() int64 {
	if p.CachedInputPricePerMillionMicros != nil {
		return *p.CachedInputPricePerMillionMicros
	}
	return p.InputPricePerMillionMicros
}
