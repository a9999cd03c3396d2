package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uaesivakumar/upr-os-sub012/internal/clock"
	"github.com/uaesivakumar/upr-os-sub012/internal/config"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	outreachservice "github.com/uaesivakumar/upr-os-sub012/internal/outreach/service"
	overviewservice "github.com/uaesivakumar/upr-os-sub012/internal/overview/service"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	performanceservice "github.com/uaesivakumar/upr-os-sub012/internal/performance/service"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	pricingservice "github.com/uaesivakumar/upr-os-sub012/internal/pricing/service"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	summaryservice "github.com/uaesivakumar/upr-os-sub012/internal/summary/service"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
	thresholdservice "github.com/uaesivakumar/upr-os-sub012/internal/threshold/service"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	usageservice "github.com/uaesivakumar/upr-os-sub012/internal/usage/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T, fakeNow time.Time) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&pricingdomain.ModelPricing{},
		&usagedomain.UsageEvent{},
		&performancedomain.PerformanceEvent{},
		&outreachdomain.OutreachFunnelState{},
		&summarydomain.DailySummary{},
		&thresholddomain.CostThreshold{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(fakeNow)
	log := zap.NewNop()
	cfg := config.Config{
		RollupTimezone:     "UTC",
		StatsReservoirSize: 1000,
	}

	pricingSvc := pricingservice.NewService(pricingservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
	})
	usageSvc := usageservice.NewService(usageservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, PricingSvc: pricingSvc,
	})
	performanceSvc := performanceservice.NewService(performanceservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
	})
	outreachSvc := outreachservice.NewService(outreachservice.ServiceParam{
		DB: db, Log: log, Clock: fake,
	})
	summarySvc := summaryservice.NewService(summaryservice.ServiceParam{
		DB: db, Log: log, Clock: fake, Config: cfg,
	})
	thresholdSvc := thresholdservice.NewService(thresholdservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Config: cfg,
	})
	overviewSvc := overviewservice.NewService(overviewservice.ServiceParam{
		DB: db, Log: log, Clock: fake, Config: cfg,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:            engine,
		Cfg:            cfg,
		PricingSvc:     pricingSvc,
		UsageSvc:       usageSvc,
		PerformanceSvc: performanceSvc,
		OutreachSvc:    outreachSvc,
		SummarySvc:     summarySvc,
		ThresholdSvc:   thresholdSvc,
		OverviewSvc:    overviewSvc,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestUsageIngestFlow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	srv := setupTestServer(t, now)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/pricing", map[string]any{
		"provider":                        "openai",
		"model":                           "gpt-4o",
		"input_price_per_million_micros":  2_500_000,
		"output_price_per_million_micros": 10_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/usage/events", map[string]any{
		"service":           "qualifier",
		"provider":          "openai",
		"model":             "gpt-4o",
		"prompt_tokens":     1_000_000,
		"completion_tokens": 200_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var event usagedomain.UsageEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, int64(4_500_000), event.CostMicros)
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	srv := setupTestServer(t, now)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/usage/events", map[string]any{
		"provider": "openai",
		"model":    "gpt-4o",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	assert.Equal(t, "invalid_service", resp.Error.Code)
}

func TestMissingPricingMapsToNotFound(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	srv := setupTestServer(t, now)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/pricing/resolve?provider=openai&model=nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestOutreachConversionAndFunnel(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	srv := setupTestServer(t, now)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/outreach/conversion", map[string]any{
		"correlation_id": "corr-1",
		"flags":          map[string]any{"opened": true},
		"vertical_slug":  "healthcare",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet,
		"/api/v1/outreach/funnel?start_date=2026-03-10&end_date=2026-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var counts outreachdomain.FunnelCounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, int64(1), counts.Sent)
	assert.Equal(t, int64(1), counts.Opened)
}

func TestRollupEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	srv := setupTestServer(t, now)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/pricing", map[string]any{
		"provider":                        "openai",
		"model":                           "gpt-4o",
		"input_price_per_million_micros":  2_500_000,
		"output_price_per_million_micros": 10_000_000,
		"effective_from":                  "2026-03-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/usage/events", map[string]any{
		"service":       "qualifier",
		"provider":      "openai",
		"model":         "gpt-4o",
		"prompt_tokens": 1_000_000,
		"occurred_at":   "2026-03-10T06:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rollup/run", map[string]any{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/summaries?service=qualifier", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Summaries []summarydomain.DailySummary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Summaries, 1)
	assert.Equal(t, int64(2_500_000), resp.Summaries[0].CostMicros)
}
