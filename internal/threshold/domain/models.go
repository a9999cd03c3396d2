// Package domain contains cost threshold configuration and evaluation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CostThreshold caps spend over a trailing window of days. An empty
// VerticalSlug or TerritoryID widens the scope to all values of that
// dimension, so a single row can watch global spend.
type CostThreshold struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	VerticalSlug string       `json:"vertical_slug" gorm:"type:text;not null;index:ix_cost_thresholds_scope,priority:1"`
	TerritoryID  string       `json:"territory_id" gorm:"type:text;not null;index:ix_cost_thresholds_scope,priority:2"`
	LimitMicros  int64        `json:"limit_micros" gorm:"not null"`
	WindowDays   int          `json:"window_days" gorm:"not null;default:30"`
	Active       bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CostThreshold) TableName() string { return "cost_thresholds" }
