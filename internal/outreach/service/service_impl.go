package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	obsmetrics "github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	"github.com/uaesivakumar/upr-os-sub012/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) outreachdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("outreach.service"),
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) UpdateConversion(ctx context.Context, req outreachdomain.UpdateConversionRequest) (*outreachdomain.OutreachFunnelState, error) {
	correlationID := strings.TrimSpace(req.CorrelationID)
	if correlationID == "" {
		return nil, outreachdomain.ErrInvalidCorrelation
	}

	now := s.clock.Now()
	var result *outreachdomain.OutreachFunnelState

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(ctx, tx, correlationID)
		if err != nil {
			return err
		}

		if state == nil {
			if req.RequireExisting {
				return outreachdomain.ErrUnknownCorrelation
			}
			created, err := s.createState(ctx, tx, correlationID, req, now)
			if err != nil {
				return err
			}
			if created != nil {
				result = created
				return nil
			}
			// Lost the insert race; the row exists now, lock it.
			state, err = lockState(ctx, tx, correlationID)
			if err != nil {
				return err
			}
			if state == nil {
				return outreachdomain.ErrUnknownCorrelation
			}
		}

		if outreachdomain.Merge(state, req.Flags, now) {
			if err := tx.Save(state).Error; err != nil {
				return err
			}
		}
		result = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncEventIngested("outreach")
	}
	return result, nil
}

func (s *Service) GetFunnel(ctx context.Context, req outreachdomain.GetFunnelRequest) (*outreachdomain.FunnelCounts, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return nil, outreachdomain.ErrInvalidDateRange
	}

	type funnelRow struct {
		Sent      int64 `gorm:"column:sent"`
		Opened    int64 `gorm:"column:opened"`
		Clicked   int64 `gorm:"column:clicked"`
		Replied   int64 `gorm:"column:replied"`
		Converted int64 `gorm:"column:converted"`
	}

	query := `SELECT
		SUM(CASE WHEN sent THEN 1 ELSE 0 END) AS sent,
		SUM(CASE WHEN opened THEN 1 ELSE 0 END) AS opened,
		SUM(CASE WHEN clicked THEN 1 ELSE 0 END) AS clicked,
		SUM(CASE WHEN replied THEN 1 ELSE 0 END) AS replied,
		SUM(CASE WHEN converted THEN 1 ELSE 0 END) AS converted
	 FROM outreach_funnel_states
	 WHERE created_at >= ? AND created_at < ?`
	args := []any{req.StartDate, req.EndDate}

	if vertical := strings.TrimSpace(req.VerticalSlug); vertical != "" {
		query += " AND vertical_slug = ?"
		args = append(args, vertical)
	}
	if territory := strings.TrimSpace(req.TerritoryID); territory != "" {
		query += " AND territory_id = ?"
		args = append(args, territory)
	}

	var row funnelRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return nil, err
	}

	counts := &outreachdomain.FunnelCounts{
		Sent:      row.Sent,
		Opened:    row.Opened,
		Clicked:   row.Clicked,
		Replied:   row.Replied,
		Converted: row.Converted,
	}
	counts.OpenRate = stepRate(row.Opened, row.Sent)
	counts.ClickRate = stepRate(row.Clicked, row.Opened)
	counts.ReplyRate = stepRate(row.Replied, row.Clicked)
	counts.ConversionRate = stepRate(row.Converted, row.Replied)
	return counts, nil
}

// createState inserts the funnel row on first reference. Sent is implied
// by the outreach event that produced the correlation id. Returns nil
// without error when a concurrent writer inserted the row first.
func (s *Service) createState(ctx context.Context, tx *gorm.DB, correlationID string, req outreachdomain.UpdateConversionRequest, now time.Time) (*outreachdomain.OutreachFunnelState, error) {
	sentAt := now
	state := &outreachdomain.OutreachFunnelState{
		CorrelationID: correlationID,
		Sent:          true,
		SentAt:        &sentAt,
		VerticalSlug:  strings.TrimSpace(req.VerticalSlug),
		TerritoryID:   normalizeTerritory(req.TerritoryID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	outreachdomain.Merge(state, req.Flags, now)

	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "correlation_id"}},
			DoNothing: true,
		}).
		Create(state)
	if result.Error != nil {
		// Dialects that surface the conflict instead of swallowing it
		// still mean the same thing: someone else inserted first.
		if db.IsDuplicateKeyErr(result.Error) {
			return nil, nil
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return state, nil
}

func normalizeTerritory(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func lockState(ctx context.Context, tx *gorm.DB, correlationID string) (*outreachdomain.OutreachFunnelState, error) {
	var state outreachdomain.OutreachFunnelState
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("correlation_id = ?", correlationID).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func stepRate(count, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(count) / float64(previous)
}
