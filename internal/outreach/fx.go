package outreach

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/outreach/service"
	"go.uber.org/fx"
)

var Module = fx.Module("outreach.service",
	fx.Provide(service.NewService),
)
