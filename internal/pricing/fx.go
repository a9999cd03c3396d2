package pricing

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(service.NewService),
)
