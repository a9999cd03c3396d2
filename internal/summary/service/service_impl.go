package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"github.com/uaesivakumar/upr-os-sub012/internal/lease"
	obsmetrics "github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/stats"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	scanBatchSize = 500
	leaseTTL      = 10 * time.Minute

	// Funnel counts have no originating service, so their partitions are
	// reported under a fixed one.
	funnelService = "outreach"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Locker  *lease.Locker       `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.Config
	locker  *lease.Locker
	metrics *obsmetrics.Metrics

	// running guards against two concurrent rollups of the same date in
	// this process. The redis lease covers other processes.
	running sync.Map
}

func NewService(p ServiceParam) summarydomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("summary.service"),
		clock:   p.Clock,
		cfg:     p.Config,
		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

// partKey identifies one aggregation partition within a day.
type partKey struct {
	Service      string
	VerticalSlug string
	TerritoryID  string
}

func (s *Service) Run(ctx context.Context, date time.Time) ([]summarydomain.DailySummary, error) {
	loc := s.location()
	now := s.clock.Now().In(loc)

	if date.IsZero() {
		date = now.AddDate(0, 0, -1)
	}
	year, month, day := date.Year(), date.Month(), date.Day()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)
	if dayStart.After(now) {
		return nil, summarydomain.ErrInvalidDate
	}
	dateKey := dayStart.Format("2006-01-02")
	dateUTC := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	if _, loaded := s.running.LoadOrStore(dateKey, struct{}{}); loaded {
		return nil, summarydomain.ErrRollupInProgress
	}
	defer s.running.Delete(dateKey)

	if s.locker != nil {
		leaseKey := "rollup:date:" + dateKey
		token, acquired, err := s.locker.TryLock(ctx, leaseKey, leaseTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire rollup lease: %w", err)
		}
		if !acquired {
			return nil, summarydomain.ErrRollupInProgress
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), leaseKey, token); err != nil {
				s.log.Warn("failed to release rollup lease", zap.String("date", dateKey), zap.Error(err))
			}
		}()
	}

	started := time.Now()
	rows, err := s.compute(ctx, dayStart, dayEnd, dateUTC)
	if err == nil {
		err = s.replaceDay(ctx, dateUTC, rows)
	}
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.ObserveRollupRun(outcome, time.Since(started))
	}
	if err != nil {
		s.log.Error("rollup failed", zap.String("date", dateKey), zap.Error(err))
		return nil, err
	}

	s.log.Info("rollup complete",
		zap.String("date", dateKey),
		zap.Int("partitions", len(rows)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rows, nil
}

func (s *Service) compute(ctx context.Context, dayStart, dayEnd, dateUTC time.Time) ([]summarydomain.DailySummary, error) {
	groups := make(map[partKey]*stats.Bucket)
	var order []partKey
	bucket := func(key partKey) *stats.Bucket {
		if b, ok := groups[key]; ok {
			return b
		}
		b := stats.NewBucket(s.cfg.StatsReservoirSize)
		groups[key] = b
		order = append(order, key)
		return b
	}

	if err := s.scanUsage(ctx, dayStart, dayEnd, bucket); err != nil {
		return nil, err
	}
	if err := s.scanPerformance(ctx, dayStart, dayEnd, bucket); err != nil {
		return nil, err
	}

	computedAt := s.clock.Now().UTC()
	rows := make(map[partKey]*summarydomain.DailySummary, len(groups))
	for _, key := range order {
		snap := groups[key].Snapshot()
		rows[key] = &summarydomain.DailySummary{
			Date:              dateUTC,
			Service:           key.Service,
			VerticalSlug:      key.VerticalSlug,
			TerritoryID:       key.TerritoryID,
			EventCount:        snap.Count,
			PromptTokens:      snap.PromptTokens,
			CompletionTokens:  snap.CompletionTokens,
			CachedTokens:      snap.CachedTokens,
			CostMicros:        snap.CostMicros,
			ErrorCount:        snap.ErrorCount,
			P50Ms:             snap.P50Ms,
			P95Ms:             snap.P95Ms,
			P99Ms:             snap.P99Ms,
			ApproxPercentiles: snap.Approximate,
			ComputedAt:        computedAt,
		}
	}

	if err := s.foldFunnel(ctx, dayStart, dayEnd, dateUTC, computedAt, rows); err != nil {
		return nil, err
	}

	out := make([]summarydomain.DailySummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		if out[i].VerticalSlug != out[j].VerticalSlug {
			return out[i].VerticalSlug < out[j].VerticalSlug
		}
		return out[i].TerritoryID < out[j].TerritoryID
	})
	return out, nil
}

func (s *Service) scanUsage(ctx context.Context, dayStart, dayEnd time.Time, bucket func(partKey) *stats.Bucket) error {
	var lastID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var batch []usagedomain.UsageEvent
		err := s.db.WithContext(ctx).
			Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayEnd).
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(scanBatchSize).
			Find(&batch).Error
		if err != nil {
			return fmt.Errorf("scan usage events: %w", err)
		}
		for _, ev := range batch {
			key := partKey{
				Service:      ev.Service,
				VerticalSlug: ev.VerticalSlug,
				TerritoryID:  territoryKey(ev.TerritoryID),
			}
			bucket(key).ObserveTokens(ev.PromptTokens, ev.CompletionTokens, ev.CachedTokens, ev.CostMicros)
		}
		if len(batch) < scanBatchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

func (s *Service) scanPerformance(ctx context.Context, dayStart, dayEnd time.Time, bucket func(partKey) *stats.Bucket) error {
	var lastID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var batch []performancedomain.PerformanceEvent
		err := s.db.WithContext(ctx).
			Where("occurred_at >= ? AND occurred_at < ?", dayStart, dayEnd).
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(scanBatchSize).
			Find(&batch).Error
		if err != nil {
			return fmt.Errorf("scan performance events: %w", err)
		}
		for _, ev := range batch {
			key := partKey{
				Service:      ev.Service,
				VerticalSlug: ev.VerticalSlug,
				TerritoryID:  territoryKey(ev.TerritoryID),
			}
			bucket(key).ObserveDuration(ev.DurationMs, ev.Success)
		}
		if len(batch) < scanBatchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

type funnelRow struct {
	VerticalSlug string
	TerritoryID  *string
	Total        int64
	Sent         int64
	Opened       int64
	Clicked      int64
	Replied      int64
	Converted    int64
}

func (s *Service) foldFunnel(ctx context.Context, dayStart, dayEnd, dateUTC, computedAt time.Time, rows map[partKey]*summarydomain.DailySummary) error {
	var funnel []funnelRow
	err := s.db.WithContext(ctx).
		Model(&outreachdomain.OutreachFunnelState{}).
		Select(`vertical_slug,
territory_id,
COUNT(*) AS total,
SUM(CASE WHEN sent THEN 1 ELSE 0 END) AS sent,
SUM(CASE WHEN opened THEN 1 ELSE 0 END) AS opened,
SUM(CASE WHEN clicked THEN 1 ELSE 0 END) AS clicked,
SUM(CASE WHEN replied THEN 1 ELSE 0 END) AS replied,
SUM(CASE WHEN converted THEN 1 ELSE 0 END) AS converted`).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Group("vertical_slug, territory_id").
		Scan(&funnel).Error
	if err != nil {
		return fmt.Errorf("aggregate funnel states: %w", err)
	}

	for _, f := range funnel {
		key := partKey{
			Service:      funnelService,
			VerticalSlug: f.VerticalSlug,
			TerritoryID:  territoryKey(f.TerritoryID),
		}
		row, ok := rows[key]
		if !ok {
			row = &summarydomain.DailySummary{
				Date:         dateUTC,
				Service:      key.Service,
				VerticalSlug: key.VerticalSlug,
				TerritoryID:  key.TerritoryID,
				ComputedAt:   computedAt,
			}
			rows[key] = row
		}
		row.EventCount += f.Total
		row.SentCount = f.Sent
		row.OpenedCount = f.Opened
		row.ClickedCount = f.Clicked
		row.RepliedCount = f.Replied
		row.ConvertedCount = f.Converted
	}
	return nil
}

// replaceDay swaps out a whole day atomically so a rerun after late or
// corrected events never double counts.
func (s *Service) replaceDay(ctx context.Context, dateUTC time.Time, rows []summarydomain.DailySummary) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ?", dateUTC).Delete(&summarydomain.DailySummary{}).Error; err != nil {
			return fmt.Errorf("clear existing summaries: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, scanBatchSize).Error; err != nil {
			return fmt.Errorf("insert summaries: %w", err)
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, req summarydomain.GetSummariesRequest) ([]summarydomain.DailySummary, error) {
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		return nil, summarydomain.ErrInvalidDate
	}

	q := s.db.WithContext(ctx).Model(&summarydomain.DailySummary{})
	if !req.StartDate.IsZero() {
		q = q.Where("date >= ?", req.StartDate)
	}
	if !req.EndDate.IsZero() {
		q = q.Where("date <= ?", req.EndDate)
	}
	if req.Service != "" {
		q = q.Where("service = ?", req.Service)
	}
	if req.VerticalSlug != "" {
		q = q.Where("vertical_slug = ?", req.VerticalSlug)
	}
	if req.TerritoryID != "" {
		q = q.Where("territory_id = ?", req.TerritoryID)
	}

	var out []summarydomain.DailySummary
	if err := q.Order("date ASC, service ASC, vertical_slug ASC, territory_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) location() *time.Location {
	loc, err := time.LoadLocation(s.cfg.RollupTimezone)
	if err != nil {
		s.log.Warn("invalid rollup timezone, falling back to UTC", zap.String("tz", s.cfg.RollupTimezone))
		return time.UTC
	}
	return loc
}

func territoryKey(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}
