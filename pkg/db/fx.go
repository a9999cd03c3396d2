package db

import (
	"context"

	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newConfig(app config.Config) Config {
	return Config{
		Type:     app.DBType,
		Host:     app.DBHost,
		Port:     app.DBPort,
		Name:     app.DBName,
		User:     app.DBUser,
		Password: app.DBPassword,
		SSLMode:  app.DBSSLMode,
	}
}

func Open(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	log.Info("database connected", zap.String("type", cfg.Type))
	return conn, nil
}

func registerHooks(lc fx.Lifecycle, conn *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

var Module = fx.Module("db",
	fx.Provide(
		newConfig,
		Open,
	),
	fx.Invoke(registerHooks),
)
