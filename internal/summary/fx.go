package summary

import (
	"github.com/uaesivakumar/upr-os-sub012/internal/summary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summary.service",
	fx.Provide(service.NewService),
)
