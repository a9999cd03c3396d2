package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) pricingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("pricing.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Resolve(ctx context.Context, req pricingdomain.ResolvePricingRequest) (*pricingdomain.ModelPricing, error) {
	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		return nil, pricingdomain.ErrInvalidProvider
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, pricingdomain.ErrInvalidModel
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	stmt := s.db.WithContext(ctx).
		Where("provider = ? AND model = ? AND active = ? AND effective_from <= ?", provider, model, true, asOf)
	if version := strings.TrimSpace(req.ModelVersion); version != "" {
		stmt = stmt.Where("model_version = ?", version)
	}

	var row pricingdomain.ModelPricing
	err := stmt.Order("effective_from DESC, id DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pricingdomain.ErrPricingNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) Upsert(ctx context.Context, req pricingdomain.UpsertPricingRequest) (*pricingdomain.ModelPricing, error) {
	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		return nil, pricingdomain.ErrInvalidProvider
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, pricingdomain.ErrInvalidModel
	}
	if req.InputPricePerMillionMicros <= 0 {
		return nil, pricingdomain.ErrInvalidInputPrice
	}
	if req.OutputPricePerMillionMicros <= 0 {
		return nil, pricingdomain.ErrInvalidOutputPrice
	}
	if req.CachedInputPricePerMillionMicros != nil && *req.CachedInputPricePerMillionMicros < 0 {
		return nil, pricingdomain.ErrInvalidCachedPrice
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil && !req.EffectiveFrom.IsZero() {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	row := &pricingdomain.ModelPricing{
		ID:                               s.genID.Generate(),
		Provider:                         provider,
		Model:                            model,
		ModelVersion:                     strings.TrimSpace(req.ModelVersion),
		InputPricePerMillionMicros:       req.InputPricePerMillionMicros,
		OutputPricePerMillionMicros:      req.OutputPricePerMillionMicros,
		CachedInputPricePerMillionMicros: req.CachedInputPricePerMillionMicros,
		EffectiveFrom:                    effectiveFrom,
		Active:                           true,
		Notes:                            strings.TrimSpace(req.Notes),
		CreatedAt:                        now,
		UpdatedAt:                        now,
	}

	// A single insert keeps concurrent readers on the previous version
	// until the new row is fully visible.
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}

	s.log.Info("pricing version added",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Time("effective_from", effectiveFrom),
	)
	return row, nil
}

func (s *Service) List(ctx context.Context, req pricingdomain.ListPricingRequest) ([]pricingdomain.ModelPricing, error) {
	stmt := s.db.WithContext(ctx).Model(&pricingdomain.ModelPricing{})
	if provider := strings.TrimSpace(req.Provider); provider != "" {
		stmt = stmt.Where("provider = ?", provider)
	}
	if model := strings.TrimSpace(req.Model); model != "" {
		stmt = stmt.Where("model = ?", model)
	}

	var rows []pricingdomain.ModelPricing
	if err := stmt.Order("provider ASC, model ASC, effective_from DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
