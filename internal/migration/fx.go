// Package migration keeps the schema in sync at startup.
package migration

import (
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(AutoMigrate),
)

// AutoMigrate creates or updates every table the services persist to.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&pricingdomain.ModelPricing{},
		&usagedomain.UsageEvent{},
		&performancedomain.PerformanceEvent{},
		&outreachdomain.OutreachFunnelState{},
		&summarydomain.DailySummary{},
		&thresholddomain.CostThreshold{},
	)
	if err != nil {
		return err
	}
	log.Named("migration").Info("schema migrated")
	return nil
}
