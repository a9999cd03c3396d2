package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewConfigMapsAppConfig(t *testing.T) {
	cfg := newConfig(config.Config{
		DBType:     "postgres",
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBName:     "metrics",
		DBUser:     "metrics",
		DBPassword: "secret",
		DBSSLMode:  "require",
	})

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "5433", cfg.Port)
	assert.Equal(t, "metrics", cfg.Name)
	assert.Equal(t, "metrics", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "require", cfg.SSLMode)
}

func TestDialectSelectsDriver(t *testing.T) {
	dialector, err := Dialect(Config{Type: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", dialector.Name())

	dialector, err = Dialect(Config{Type: "postgres", Host: "localhost", Port: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialector.Name())

	_, err = Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "outreach_funnel_states_pkey" (SQLSTATE 23505)`)))
}

func TestIsDuplicateKeyErrClassifiesDriverError(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	type funnelRow struct {
		CorrelationID string `gorm:"primaryKey;type:text"`
	}
	require.NoError(t, conn.AutoMigrate(&funnelRow{}))
	require.NoError(t, conn.Create(&funnelRow{CorrelationID: "corr-1"}).Error)

	err = conn.Create(&funnelRow{CorrelationID: "corr-1"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyErr(err))
}
