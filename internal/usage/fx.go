package usage

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
