package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	overviewdomain "github.com/uaesivakumar/upr-os-sub012/internal/overview/domain"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/stats"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	scanBatchSize    = 500
	defaultTrendDays = 30
	maxTrendDays     = 365
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	cfg   config.Config
}

func NewService(p ServiceParam) overviewdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("overview.service"),
		clock: p.Clock,
		cfg:   p.Config,
	}
}

func (s *Service) UsageStats(ctx context.Context, req overviewdomain.UsageStatsRequest) (*overviewdomain.UsageStatsResponse, error) {
	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = overviewdomain.GroupByService
	}
	groupKey, err := usageGroupKey(groupBy)
	if err != nil {
		return nil, err
	}
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	agg := stats.NewAggregator(s.cfg.StatsReservoirSize)
	totals := stats.NewBucket(s.cfg.StatsReservoirSize)
	err = s.scanUsage(ctx, usageFilter{
		start:        req.StartDate,
		end:          req.EndDate,
		service:      req.Service,
		verticalSlug: req.VerticalSlug,
		territoryID:  req.TerritoryID,
	}, func(ev usagedomain.UsageEvent) {
		agg.Bucket(groupKey(ev)).ObserveTokens(ev.PromptTokens, ev.CompletionTokens, ev.CachedTokens, ev.CostMicros)
		totals.ObserveTokens(ev.PromptTokens, ev.CompletionTokens, ev.CachedTokens, ev.CostMicros)
	})
	if err != nil {
		return nil, err
	}

	groups := make([]overviewdomain.GroupStats, 0, len(agg.Keys()))
	snapshots := agg.Snapshot()
	for _, key := range agg.Keys() {
		groups = append(groups, overviewdomain.GroupStats{Key: key, StatsBucket: snapshots[key]})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CostMicros != groups[j].CostMicros {
			return groups[i].CostMicros > groups[j].CostMicros
		}
		return groups[i].Key < groups[j].Key
	})

	return &overviewdomain.UsageStatsResponse{
		GroupBy: groupBy,
		Groups:  groups,
		Totals:  totals.Snapshot(),
	}, nil
}

func (s *Service) CostSummary(ctx context.Context, req overviewdomain.CostSummaryRequest) (*overviewdomain.CostSummaryResponse, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	type share struct {
		cost  int64
		count int64
	}
	byService := make(map[string]*share)
	byModel := make(map[string]*share)
	var totalCost, totalCount int64

	fold := func(m map[string]*share, key string, cost int64) {
		entry, ok := m[key]
		if !ok {
			entry = &share{}
			m[key] = entry
		}
		entry.cost += cost
		entry.count++
	}

	err := s.scanUsage(ctx, usageFilter{
		start:        req.StartDate,
		end:          req.EndDate,
		verticalSlug: req.VerticalSlug,
		territoryID:  req.TerritoryID,
	}, func(ev usagedomain.UsageEvent) {
		totalCost += ev.CostMicros
		totalCount++
		fold(byService, ev.Service, ev.CostMicros)
		fold(byModel, ev.Provider+"/"+ev.Model, ev.CostMicros)
	})
	if err != nil {
		return nil, err
	}

	shares := func(m map[string]*share) []overviewdomain.CostShare {
		out := make([]overviewdomain.CostShare, 0, len(m))
		for key, entry := range m {
			pct := 0.0
			if totalCost > 0 {
				pct = float64(entry.cost) / float64(totalCost) * 100
			}
			out = append(out, overviewdomain.CostShare{
				Key:        key,
				CostMicros: entry.cost,
				EventCount: entry.count,
				SharePct:   pct,
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].CostMicros != out[j].CostMicros {
				return out[i].CostMicros > out[j].CostMicros
			}
			return out[i].Key < out[j].Key
		})
		return out
	}

	return &overviewdomain.CostSummaryResponse{
		TotalCostMicros: totalCost,
		EventCount:      totalCount,
		ByService:       shares(byService),
		ByModel:         shares(byModel),
	}, nil
}

func (s *Service) CostTrend(ctx context.Context, req overviewdomain.CostTrendRequest) ([]stats.TrendPoint, error) {
	days := req.Days
	if days == 0 {
		days = defaultTrendDays
	}
	if days < 0 || days > maxTrendDays {
		return nil, overviewdomain.ErrInvalidDays
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.Add(24 * time.Hour)

	// Per-day totals are folded in Go so the bucketing does not depend on
	// database date functions, which differ across dialects.
	totals := make(map[string]int64)
	err := s.scanUsage(ctx, usageFilter{
		start:        start,
		end:          end,
		verticalSlug: req.VerticalSlug,
		territoryID:  req.TerritoryID,
	}, func(ev usagedomain.UsageEvent) {
		totals[ev.OccurredAt.UTC().Format("2006-01-02")] += ev.CostMicros
	})
	if err != nil {
		return nil, err
	}
	return stats.FillDailyTrend(days, today, totals), nil
}

func (s *Service) PerformanceStats(ctx context.Context, req overviewdomain.PerformanceStatsRequest) (*overviewdomain.PerformanceStatsResponse, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	agg := stats.NewAggregator(s.cfg.StatsReservoirSize)
	totals := stats.NewBucket(s.cfg.StatsReservoirSize)
	err := s.scanPerformance(ctx, req, func(ev performancedomain.PerformanceEvent) {
		agg.Bucket(ev.Service).ObserveDuration(ev.DurationMs, ev.Success)
		totals.ObserveDuration(ev.DurationMs, ev.Success)
	})
	if err != nil {
		return nil, err
	}

	services := make([]overviewdomain.GroupStats, 0, len(agg.Keys()))
	snapshots := agg.Snapshot()
	for _, key := range agg.Keys() {
		services = append(services, overviewdomain.GroupStats{Key: key, StatsBucket: snapshots[key]})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Key < services[j].Key })

	return &overviewdomain.PerformanceStatsResponse{
		Services: services,
		Totals:   totals.Snapshot(),
	}, nil
}

func (s *Service) Realtime(ctx context.Context) (*overviewdomain.RealtimeSnapshot, error) {
	windowEnd := s.clock.Now().UTC()
	windowStart := windowEnd.Add(-24 * time.Hour)

	snapshot := &overviewdomain.RealtimeSnapshot{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	activeServices := make(map[string]struct{})
	err := s.scanUsage(ctx, usageFilter{start: windowStart, end: windowEnd}, func(ev usagedomain.UsageEvent) {
		snapshot.UsageEvents++
		snapshot.CostMicros += ev.CostMicros
		snapshot.TotalTokens += ev.PromptTokens + ev.CompletionTokens
		activeServices[ev.Service] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	snapshot.ActiveServices = int64(len(activeServices))

	perf := stats.NewBucket(s.cfg.StatsReservoirSize)
	err = s.scanPerformance(ctx, overviewdomain.PerformanceStatsRequest{
		StartDate: windowStart,
		EndDate:   windowEnd,
	}, func(ev performancedomain.PerformanceEvent) {
		perf.ObserveDuration(ev.DurationMs, ev.Success)
	})
	if err != nil {
		return nil, err
	}
	snapshot.Performance = perf.Snapshot()
	return snapshot, nil
}

func (s *Service) Health(ctx context.Context) (*overviewdomain.HealthReport, error) {
	report := &overviewdomain.HealthReport{}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&usagedomain.UsageEvent{}, &report.UsageEvents},
		{&performancedomain.PerformanceEvent{}, &report.PerformanceEvents},
		{&outreachdomain.OutreachFunnelState{}, &report.FunnelStates},
		{&summarydomain.DailySummary{}, &report.DailySummaries},
		{&pricingdomain.ModelPricing{}, &report.PricingRows},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count rows: %w", err)
		}
	}

	var lastUsage usagedomain.UsageEvent
	err := s.db.WithContext(ctx).Order("occurred_at DESC").First(&lastUsage).Error
	if err == nil {
		occurredAt := lastUsage.OccurredAt
		report.LastUsageAt = &occurredAt
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var lastSummary summarydomain.DailySummary
	err = s.db.WithContext(ctx).Order("computed_at DESC").First(&lastSummary).Error
	if err == nil {
		computedAt := lastSummary.ComputedAt
		report.LastRollupAt = &computedAt
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return report, nil
}

type usageFilter struct {
	start        time.Time
	end          time.Time
	service      string
	verticalSlug string
	territoryID  string
}

func (s *Service) scanUsage(ctx context.Context, filter usageFilter, fold func(usagedomain.UsageEvent)) error {
	var lastID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := s.db.WithContext(ctx).Where("id > ?", lastID)
		if !filter.start.IsZero() {
			q = q.Where("occurred_at >= ?", filter.start)
		}
		if !filter.end.IsZero() {
			q = q.Where("occurred_at < ?", filter.end)
		}
		if filter.service != "" {
			q = q.Where("service = ?", filter.service)
		}
		if filter.verticalSlug != "" {
			q = q.Where("vertical_slug = ?", filter.verticalSlug)
		}
		if filter.territoryID != "" {
			q = q.Where("territory_id = ?", filter.territoryID)
		}

		var batch []usagedomain.UsageEvent
		if err := q.Order("id ASC").Limit(scanBatchSize).Find(&batch).Error; err != nil {
			return fmt.Errorf("scan usage events: %w", err)
		}
		for _, ev := range batch {
			fold(ev)
		}
		if len(batch) < scanBatchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

func (s *Service) scanPerformance(ctx context.Context, req overviewdomain.PerformanceStatsRequest, fold func(performancedomain.PerformanceEvent)) error {
	var lastID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := s.db.WithContext(ctx).Where("id > ?", lastID)
		if !req.StartDate.IsZero() {
			q = q.Where("occurred_at >= ?", req.StartDate)
		}
		if !req.EndDate.IsZero() {
			q = q.Where("occurred_at < ?", req.EndDate)
		}
		if req.Service != "" {
			q = q.Where("service = ?", req.Service)
		}
		if req.TerritoryID != "" {
			q = q.Where("territory_id = ?", req.TerritoryID)
		}

		var batch []performancedomain.PerformanceEvent
		if err := q.Order("id ASC").Limit(scanBatchSize).Find(&batch).Error; err != nil {
			return fmt.Errorf("scan performance events: %w", err)
		}
		for _, ev := range batch {
			fold(ev)
		}
		if len(batch) < scanBatchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

func usageGroupKey(groupBy string) (func(usagedomain.UsageEvent) string, error) {
	switch groupBy {
	case overviewdomain.GroupByService:
		return func(ev usagedomain.UsageEvent) string { return ev.Service }, nil
	case overviewdomain.GroupByProvider:
		return func(ev usagedomain.UsageEvent) string { return ev.Provider }, nil
	case overviewdomain.GroupByModel:
		return func(ev usagedomain.UsageEvent) string { return ev.Provider + "/" + ev.Model }, nil
	case overviewdomain.GroupByVertical:
		return func(ev usagedomain.UsageEvent) string { return ev.VerticalSlug }, nil
	default:
		return nil, overviewdomain.ErrInvalidGroupBy
	}
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return overviewdomain.ErrInvalidDateRange
	}
	if end.Before(start) {
		return overviewdomain.ErrInvalidDateRange
	}
	return nil
}
