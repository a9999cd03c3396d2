// Package domain contains persistence models for service performance events.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PerformanceEvent records one timed operation outcome. Immutable.
type PerformanceEvent struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Service      string       `json:"service" gorm:"type:text;not null;index"`
	Operation    string       `json:"operation" gorm:"type:text;not null"`
	DurationMs   float64      `json:"duration_ms" gorm:"not null"`
	Success      bool         `json:"success" gorm:"not null"`
	ErrorKind    string       `json:"error_kind,omitempty" gorm:"type:text"`
	VerticalSlug string       `json:"vertical_slug" gorm:"type:text;index"`
	TerritoryID  *string      `json:"territory_id,omitempty" gorm:"type:text;index"`
	OccurredAt   time.Time    `json:"occurred_at" gorm:"not null;index"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PerformanceEvent) TableName() string { return "performance_events" }
