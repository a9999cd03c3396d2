package observability

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"github.com/uaesivakumar/upr-os-sub012/internal/logger"
	"github.com/uaesivakumar/upr-os-sub012/internal/observability/metrics"
	"go.uber.org/fx"
)

func newMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(
		newMetricsConfig,
		metrics.NewHTTPMetrics,
		metrics.New,
	),
)
