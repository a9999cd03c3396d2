package performance

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/performance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("performance.service",
	fx.Provide(service.NewService),
)
