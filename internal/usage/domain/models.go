// Package domain contains persistence models for raw LLM usage ingestion.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageEvent stores a single LLM invocation with its cost stamped at
// ingestion time. Rows are immutable once written.
type UsageEvent struct {
	ID               snowflake.ID      `json:"id" gorm:"primaryKey"`
	Service          string            `json:"service" gorm:"type:text;not null;index"`
	Provider         string            `json:"provider" gorm:"type:text;not null"`
	Model            string            `json:"model" gorm:"type:text;not null"`
	PromptTokens     int64             `json:"prompt_tokens" gorm:"not null"`
	CompletionTokens int64             `json:"completion_tokens" gorm:"not null"`
	CachedTokens     int64             `json:"cached_tokens" gorm:"not null"`
	CostMicros       int64             `json:"cost_micros" gorm:"not null"`
	VerticalSlug     string            `json:"vertical_slug" gorm:"type:text;index"`
	TerritoryID      *string           `json:"territory_id,omitempty" gorm:"type:text;index"`
	CorrelationID    string            `json:"correlation_id,omitempty" gorm:"type:text;index"`
	OccurredAt       time.Time         `json:"occurred_at" gorm:"not null;index"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }
