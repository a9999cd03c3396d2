// Package domain contains the persisted daily rollup rows.
package domain

import "time"

// DailySummary is one aggregated day for a (service, vertical, territory)
// partition. Recomputing a day replaces its rows wholesale; values are
// never accumulated onto an existing row, so replays after late event
// corrections are deterministic. TerritoryID is the empty string for
// events without a territory, which is its own partition.
type DailySummary struct {
	Date              time.Time `json:"date" gorm:"primaryKey"`
	Service           string    `json:"service" gorm:"primaryKey;type:text"`
	VerticalSlug      string    `json:"vertical_slug" gorm:"primaryKey;type:text"`
	TerritoryID       string    `json:"territory_id" gorm:"primaryKey;type:text"`
	EventCount        int64     `json:"event_count" gorm:"not null"`
	PromptTokens      int64     `json:"prompt_tokens" gorm:"not null"`
	CompletionTokens  int64     `json:"completion_tokens" gorm:"not null"`
	CachedTokens      int64     `json:"cached_tokens" gorm:"not null"`
	CostMicros        int64     `json:"cost_micros" gorm:"not null"`
	ErrorCount        int64     `json:"error_count" gorm:"not null"`
	P50Ms             float64   `json:"p50_ms" gorm:"not null"`
	P95Ms             float64   `json:"p95_ms" gorm:"not null"`
	P99Ms             float64   `json:"p99_ms" gorm:"not null"`
	ApproxPercentiles bool      `json:"approx_percentiles" gorm:"not null;default:false"`
	SentCount         int64     `json:"sent_count" gorm:"not null"`
	OpenedCount       int64     `json:"opened_count" gorm:"not null"`
	ClickedCount      int64     `json:"clicked_count" gorm:"not null"`
	RepliedCount      int64     `json:"replied_count" gorm:"not null"`
	ConvertedCount    int64     `json:"converted_count" gorm:"not null"`
	ComputedAt        time.Time `json:"computed_at" gorm:"not null"`
}

// TableName sets the database table name.
func (DailySummary) TableName() string { return "daily_summaries" }
