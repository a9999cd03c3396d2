package overview

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/overview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("overview.service",
	fx.Provide(service.NewService),
)
