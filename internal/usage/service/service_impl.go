package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	obsmetrics "github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"github.com/uaesivakumar/upr-os-sub012/pkg/db/option"
	"github.com/uaesivakumar/upr-os-sub012/pkg/db/pagination"
	"github.com/uaesivakumar/upr-os-sub012/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	PricingSvc pricingdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	pricingsvc pricingdomain.Service
	usagerepo  repository.Repository[usagedomain.UsageEvent]
	metrics    *obsmetrics.Metrics
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		pricingsvc: p.PricingSvc,
		usagerepo:  repository.ProvideStore[usagedomain.UsageEvent](p.DB),
		metrics:    p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req usagedomain.RecordUsageRequest) (*usagedomain.UsageEvent, error) {
	if err := validateUsageEvent(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	costMicros, err := s.resolveCost(ctx, req, occurredAt)
	if err != nil {
		return nil, err
	}

	record := &usagedomain.UsageEvent{
		ID:               s.genID.Generate(),
		Service:          strings.TrimSpace(req.Service),
		Provider:         strings.TrimSpace(req.Provider),
		Model:            strings.TrimSpace(req.Model),
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		CachedTokens:     req.CachedTokens,
		CostMicros:       costMicros,
		VerticalSlug:     strings.TrimSpace(req.VerticalSlug),
		TerritoryID:      normalizeTerritory(req.TerritoryID),
		CorrelationID:    strings.TrimSpace(req.CorrelationID),
		OccurredAt:       occurredAt,
		CreatedAt:        now,
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.usagerepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncEventIngested("usage")
	}
	return record, nil
}

func (s *Service) PreviewCost(ctx context.Context, req usagedomain.PreviewCostRequest) (*usagedomain.PreviewCostResponse, error) {
	if req.PromptTokens < 0 {
		return nil, usagedomain.ErrInvalidPromptTokens
	}
	if req.CompletionTokens < 0 {
		return nil, usagedomain.ErrInvalidCompletionTokens
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	pricing, err := s.pricingsvc.Resolve(ctx, pricingdomain.ResolvePricingRequest{
		Provider:     req.Provider,
		Model:        req.Model,
		ModelVersion: req.ModelVersion,
		AsOf:         asOf,
	})
	if err != nil {
		return nil, err
	}

	costMicros, err := pricingdomain.ComputeCostMicros(req.PromptTokens, req.CompletionTokens, req.CachedTokens, *pricing)
	if err != nil {
		return nil, err
	}

	return &usagedomain.PreviewCostResponse{
		CostMicros:       costMicros,
		Provider:         pricing.Provider,
		Model:            pricing.Model,
		PricingVersionID: pricing.ID.String(),
	}, nil
}

func (s *Service) List(ctx context.Context, req usagedomain.ListUsageRequest) (usagedomain.ListUsageResponse, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndDate.Before(req.StartDate) {
		return usagedomain.ListUsageResponse{}, usagedomain.ErrInvalidDateRange
	}

	filter := &usagedomain.UsageEvent{
		Service:      strings.TrimSpace(req.Service),
		Provider:     strings.TrimSpace(req.Provider),
		Model:        strings.TrimSpace(req.Model),
		VerticalSlug: strings.TrimSpace(req.VerticalSlug),
		TerritoryID:  normalizeTerritory(&req.TerritoryID),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.usagerepo.Find(ctx, filter,
		option.WithTimeRange("occurred_at", req.StartDate, req.EndDate),
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return usagedomain.ListUsageResponse{}, err
	}
	return buildUsageListResponse(items, pageSize), nil
}

func (s *Service) resolveCost(ctx context.Context, req usagedomain.RecordUsageRequest, occurredAt time.Time) (int64, error) {
	pricing, err := s.pricingsvc.Resolve(ctx, pricingdomain.ResolvePricingRequest{
		Provider:     req.Provider,
		Model:        req.Model,
		ModelVersion: req.ModelVersion,
		AsOf:         occurredAt,
	})
	if err != nil {
		if errors.Is(err, pricingdomain.ErrPricingNotFound) && req.AllowMissingPricing {
			s.log.Warn("no pricing for usage event, stamping zero cost",
				zap.String("provider", req.Provider),
				zap.String("model", req.Model),
			)
			return 0, nil
		}
		return 0, err
	}
	return pricingdomain.ComputeCostMicros(req.PromptTokens, req.CompletionTokens, req.CachedTokens, *pricing)
}

func validateUsageEvent(req usagedomain.RecordUsageRequest) error {
	if strings.TrimSpace(req.Service) == "" {
		return usagedomain.ErrInvalidService
	}
	if strings.TrimSpace(req.Provider) == "" {
		return pricingdomain.ErrInvalidProvider
	}
	if strings.TrimSpace(req.Model) == "" {
		return pricingdomain.ErrInvalidModel
	}
	if req.PromptTokens < 0 {
		return usagedomain.ErrInvalidPromptTokens
	}
	if req.CompletionTokens < 0 {
		return usagedomain.ErrInvalidCompletionTokens
	}
	if req.CachedTokens < 0 || req.CachedTokens > req.PromptTokens {
		return pricingdomain.ErrInvalidCachedTokens
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

func buildUsageListResponse(items []*usagedomain.UsageEvent, pageSize int32) usagedomain.ListUsageResponse {
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *usagedomain.UsageEvent) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	records := make([]usagedomain.UsageEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := usagedomain.ListUsageResponse{
		UsageEvents: records,
	}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}
