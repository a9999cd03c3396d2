package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	obsmetrics "github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	"github.com/uaesivakumar/upr-os-sub012/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	perfrepo repository.Repository[performancedomain.PerformanceEvent]
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) performancedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("performance.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		perfrepo: repository.ProvideStore[performancedomain.PerformanceEvent](p.DB),
		metrics:  p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req performancedomain.RecordPerformanceRequest) (*performancedomain.PerformanceEvent, error) {
	if err := validatePerformanceEvent(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	record := &performancedomain.PerformanceEvent{
		ID:           s.genID.Generate(),
		Service:      strings.TrimSpace(req.Service),
		Operation:    strings.TrimSpace(req.Operation),
		DurationMs:   req.DurationMs,
		Success:      req.Success,
		ErrorKind:    strings.TrimSpace(req.ErrorKind),
		VerticalSlug: strings.TrimSpace(req.VerticalSlug),
		TerritoryID:  normalizeTerritory(req.TerritoryID),
		OccurredAt:   occurredAt,
		CreatedAt:    now,
	}

	if err := s.perfrepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncEventIngested("performance")
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, req performancedomain.ListPerformanceRequest) ([]performancedomain.PerformanceEvent, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return nil, performancedomain.ErrInvalidDateRange
	}

	stmt := s.db.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at < ?", req.StartDate, req.EndDate)
	if service := strings.TrimSpace(req.Service); service != "" {
		stmt = stmt.Where("service = ?", service)
	}
	if operation := strings.TrimSpace(req.Operation); operation != "" {
		stmt = stmt.Where("operation = ?", operation)
	}
	if vertical := strings.TrimSpace(req.VerticalSlug); vertical != "" {
		stmt = stmt.Where("vertical_slug = ?", vertical)
	}
	if territory := strings.TrimSpace(req.TerritoryID); territory != "" {
		stmt = stmt.Where("territory_id = ?", territory)
	}

	var rows []performancedomain.PerformanceEvent
	if err := stmt.Order("occurred_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ErrorSummary(ctx context.Context, req performancedomain.ErrorSummaryRequest) ([]performancedomain.ErrorBucket, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return nil, performancedomain.ErrInvalidDateRange
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	type errorRow struct {
		ErrorKind string    `gorm:"column:error_kind"`
		Service   string    `gorm:"column:service"`
		Count     int64     `gorm:"column:count"`
		LastSeen  time.Time `gorm:"column:last_seen"`
		AvgMs     float64   `gorm:"column:avg_ms"`
	}

	var rows []errorRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT error_kind, service, COUNT(1) AS count,
		        MAX(occurred_at) AS last_seen, AVG(duration_ms) AS avg_ms
		 FROM performance_events
		 WHERE success = ? AND occurred_at >= ? AND occurred_at < ?
		 GROUP BY error_kind, service
		 ORDER BY count DESC, error_kind ASC, service ASC
		 LIMIT ?`,
		false,
		req.StartDate,
		req.EndDate,
		limit,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	buckets := make([]performancedomain.ErrorBucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, performancedomain.ErrorBucket{
			ErrorKind: row.ErrorKind,
			Service:   row.Service,
			Count:     row.Count,
			LastSeen:  row.LastSeen.UTC().Format(time.RFC3339),
			AvgMs:     row.AvgMs,
		})
	}
	return buckets, nil
}

func validatePerformanceEvent(req performancedomain.RecordPerformanceRequest) error {
	if strings.TrimSpace(req.Service) == "" {
		return performancedomain.ErrInvalidService
	}
	if strings.TrimSpace(req.Operation) == "" {
		return performancedomain.ErrInvalidOperation
	}
	if req.DurationMs < 0 {
		return performancedomain.ErrInvalidDuration
	}
	errorKind := strings.TrimSpace(req.ErrorKind)
	if req.Success && errorKind != "" {
		return performancedomain.ErrInvalidErrorKind
	}
	if !req.Success && errorKind == "" {
		return performancedomain.ErrInvalidErrorKind
	}
	return nil
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
