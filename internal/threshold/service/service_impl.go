package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
	"github.com/uaesivakumar/upr-os-sub012/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultWindowDays = 30

// trendDeadBandPct keeps small fluctuations from flapping the trend.
const trendDeadBandPct = 5.0

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID         *snowflake.Node
	clock         clock.Clock
	cfg           config.Config
	thresholdrepo repository.Repository[thresholddomain.CostThreshold]
}

func NewService(p ServiceParam) thresholddomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("threshold.service"),

		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Config,
		thresholdrepo: repository.ProvideStore[thresholddomain.CostThreshold](p.DB),
	}
}

func (s *Service) Configure(ctx context.Context, req thresholddomain.ConfigureThresholdRequest) (*thresholddomain.CostThreshold, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, thresholddomain.ErrInvalidName
	}
	if req.LimitMicros <= 0 {
		return nil, thresholddomain.ErrInvalidLimit
	}
	windowDays := req.WindowDays
	if windowDays == 0 {
		windowDays = defaultWindowDays
	}
	if windowDays < 0 {
		return nil, thresholddomain.ErrInvalidWindow
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	record := &thresholddomain.CostThreshold{
		ID:           s.genID.Generate(),
		Name:         name,
		VerticalSlug: strings.TrimSpace(req.VerticalSlug),
		TerritoryID:  strings.TrimSpace(req.TerritoryID),
		LimitMicros:  req.LimitMicros,
		WindowDays:   windowDays,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.thresholdrepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context) ([]thresholddomain.CostThreshold, error) {
	var out []thresholddomain.CostThreshold
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Check(ctx context.Context, req thresholddomain.CheckThresholdsRequest) ([]thresholddomain.ThresholdStatus, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	q := s.db.WithContext(ctx).Where("active = ?", true)
	if req.VerticalSlug != "" {
		q = q.Where("vertical_slug = ?", req.VerticalSlug)
	}
	if req.TerritoryID != "" {
		q = q.Where("territory_id = ?", req.TerritoryID)
	}
	var thresholds []thresholddomain.CostThreshold
	if err := q.Order("created_at ASC, id ASC").Find(&thresholds).Error; err != nil {
		return nil, err
	}

	out := make([]thresholddomain.ThresholdStatus, 0, len(thresholds))
	for _, threshold := range thresholds {
		status, err := s.evaluate(ctx, threshold, today)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *Service) evaluate(ctx context.Context, threshold thresholddomain.CostThreshold, today time.Time) (thresholddomain.ThresholdStatus, error) {
	windowEnd := today.Add(24 * time.Hour)
	windowStart := windowEnd.AddDate(0, 0, -threshold.WindowDays)
	previousStart := windowStart.AddDate(0, 0, -threshold.WindowDays)

	spend, err := s.windowSpend(ctx, threshold, windowStart, windowEnd)
	if err != nil {
		return thresholddomain.ThresholdStatus{}, err
	}
	previous, err := s.windowSpend(ctx, threshold, previousStart, windowStart)
	if err != nil {
		return thresholddomain.ThresholdStatus{}, err
	}

	status := thresholddomain.ThresholdStatus{
		Threshold:      threshold,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		SpendMicros:    spend,
		PreviousMicros: previous,
		UtilizationPct: float64(spend) / float64(threshold.LimitMicros) * 100,
		Level:          level(spend, threshold.LimitMicros),
		Trend:          trend(spend, previous),
	}
	return status, nil
}

func (s *Service) windowSpend(ctx context.Context, threshold thresholddomain.CostThreshold, start, end time.Time) (int64, error) {
	q := s.db.WithContext(ctx).
		Model(&summarydomain.DailySummary{}).
		Where("date >= ? AND date < ?", start, end)
	if threshold.VerticalSlug != "" {
		q = q.Where("vertical_slug = ?", threshold.VerticalSlug)
	}
	if threshold.TerritoryID != "" {
		q = q.Where("territory_id = ?", threshold.TerritoryID)
	}

	var total struct{ Total int64 }
	if err := q.Select("COALESCE(SUM(cost_micros), 0) AS total").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total.Total, nil
}

// level classifies spend against the limit. Warning fires at 80% of the
// limit, exceeded at or past the limit itself.
func level(spend, limit int64) string {
	switch {
	case spend >= limit:
		return thresholddomain.LevelExceeded
	case spend*5 >= limit*4:
		return thresholddomain.LevelWarning
	default:
		return thresholddomain.LevelOK
	}
}

func trend(spend, previous int64) string {
	if previous == 0 {
		if spend > 0 {
			return thresholddomain.TrendUp
		}
		return thresholddomain.TrendFlat
	}
	changePct := (float64(spend) - float64(previous)) / float64(previous) * 100
	switch {
	case changePct > trendDeadBandPct:
		return thresholddomain.TrendUp
	case changePct < -trendDeadBandPct:
		return thresholddomain.TrendDown
	default:
		return thresholddomain.TrendFlat
	}
}
