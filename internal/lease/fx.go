package lease

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, cross-process leases disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

var Module = fx.Module("lease",
	fx.Provide(
		newClient,
		NewLocker,
	),
)
