package threshold

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/threshold/service"
	"go.uber.org/fx"
)

var Module = fx.Module("threshold.service",
	fx.Provide(service.NewService),
)
