// Package domain contains the outreach funnel state machine.
package domain

import "time"

// OutreachFunnelState tracks one correlation id through the outreach
// funnel: sent, opened, clicked, replied, converted. Stage booleans only
// ever flip from false to true and first-reached timestamps are immutable once
// set. Rows are never deleted.
type OutreachFunnelState struct {
	CorrelationID string     `json:"correlation_id" gorm:"primaryKey;type:text"`
	Sent          bool       `json:"sent" gorm:"not null;default:false"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Opened        bool       `json:"opened" gorm:"not null;default:false"`
	OpenedAt      *time.Time `json:"opened_at,omitempty"`
	Clicked       bool       `json:"clicked" gorm:"not null;default:false"`
	ClickedAt     *time.Time `json:"clicked_at,omitempty"`
	Replied       bool       `json:"replied" gorm:"not null;default:false"`
	RepliedAt     *time.Time `json:"replied_at,omitempty"`
	Converted     bool       `json:"converted" gorm:"not null;default:false"`
	ConvertedAt   *time.Time `json:"converted_at,omitempty"`
	VerticalSlug  string     `json:"vertical_slug" gorm:"type:text;index"`
	TerritoryID   *string    `json:"territory_id,omitempty" gorm:"type:text;index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OutreachFunnelState) TableName() string { return "outreach_funnel_states" }
