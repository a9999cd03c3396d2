// Package server exposes the HTTP API over gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	obsmetrics "github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	"github.com/uaesivakumar/upr-os-sub012/internal/outreach"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/overview"
	overviewdomain "github.com/uaesivakumar/upr-os-sub012/internal/overview/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/performance"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/pricing"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/summary"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/threshold"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
	"github.com/uaesivakumar/upr-os-sub012/internal/usage"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	pricing.Module,
	usage.Module,
	performance.Module,
	outreach.Module,
	summary.Module,
	threshold.Module,
	overview.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config

	pricingSvc     pricingdomain.Service
	usageSvc       usagedomain.Service
	performanceSvc performancedomain.Service
	outreachSvc    outreachdomain.Service
	summarySvc     summarydomain.Service
	thresholdSvc   thresholddomain.Service
	overviewSvc    overviewdomain.Service
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config

	PricingSvc     pricingdomain.Service
	UsageSvc       usagedomain.Service
	PerformanceSvc performancedomain.Service
	OutreachSvc    outreachdomain.Service
	SummarySvc     summarydomain.Service
	ThresholdSvc   thresholddomain.Service
	OverviewSvc    overviewdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,

		pricingSvc:     p.PricingSvc,
		usageSvc:       p.UsageSvc,
		performanceSvc: p.PerformanceSvc,
		outreachSvc:    p.OutreachSvc,
		summarySvc:     p.SummarySvc,
		thresholdSvc:   p.ThresholdSvc,
		overviewSvc:    p.OverviewSvc,
	}

	svc.registerAPIRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/pricing", s.UpsertPricing)
	api.GET("/pricing", s.ListPricing)
	api.GET("/pricing/resolve", s.ResolvePricing)

	api.POST("/usage/events", s.RecordUsage)
	api.GET("/usage/events", s.ListUsage)
	api.POST("/usage/preview", s.PreviewCost)

	api.POST("/performance/events", s.RecordPerformance)
	api.GET("/performance/events", s.ListPerformance)
	api.GET("/performance/errors", s.ErrorSummary)

	api.POST("/outreach/conversion", s.UpdateConversion)
	api.GET("/outreach/funnel", s.GetFunnel)

	api.POST("/rollup/run", s.RunRollup)
	api.GET("/summaries", s.GetSummaries)

	api.POST("/thresholds", s.ConfigureThreshold)
	api.GET("/thresholds", s.ListThresholds)
	api.GET("/thresholds/check", s.CheckThresholds)

	api.GET("/overview/usage", s.OverviewUsageStats)
	api.GET("/overview/costs", s.OverviewCostSummary)
	api.GET("/overview/costs/trend", s.OverviewCostTrend)
	api.GET("/overview/performance", s.OverviewPerformanceStats)
	api.GET("/overview/realtime", s.OverviewRealtime)
	api.GET("/overview/health", s.OverviewHealth)
}
