package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	outreachdomain "github.com/uaesivakumar/upr-os-sub012/internal/outreach/domain"
	overviewdomain "github.com/uaesivakumar/upr-os-sub012/internal/overview/domain"
	performancedomain "github.com/uaesivakumar/upr-os-sub012/internal/performance/domain"
	pricingdomain "github.com/uaesivakumar/upr-os-sub012/internal/pricing/domain"
	summarydomain "github.com/uaesivakumar/upr-os-sub012/internal/summary/domain"
	thresholddomain "github.com/uaesivakumar/upr-os-sub012/internal/threshold/domain"
	usagedomain "github.com/uaesivakumar/upr-os-sub012/internal/usage/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware turns errors recorded on the context into a
// JSON error response, once, after the handler chain runs.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    validationErrorCode(err),
			Message: "validation error",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, summarydomain.ErrRollupInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    "rollup_in_progress",
			Message: "a rollup for this date is already running",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pricingdomain.ErrInvalidProvider),
		errors.Is(err, pricingdomain.ErrInvalidModel),
		errors.Is(err, pricingdomain.ErrInvalidInputPrice),
		errors.Is(err, pricingdomain.ErrInvalidOutputPrice),
		errors.Is(err, pricingdomain.ErrInvalidCachedPrice),
		errors.Is(err, pricingdomain.ErrInvalidTokenCount),
		errors.Is(err, pricingdomain.ErrInvalidCachedTokens),
		errors.Is(err, usagedomain.ErrInvalidService),
		errors.Is(err, usagedomain.ErrInvalidPromptTokens),
		errors.Is(err, usagedomain.ErrInvalidCompletionTokens),
		errors.Is(err, usagedomain.ErrInvalidDateRange),
		errors.Is(err, performancedomain.ErrInvalidService),
		errors.Is(err, performancedomain.ErrInvalidOperation),
		errors.Is(err, performancedomain.ErrInvalidDuration),
		errors.Is(err, performancedomain.ErrInvalidErrorKind),
		errors.Is(err, performancedomain.ErrInvalidDateRange),
		errors.Is(err, outreachdomain.ErrInvalidCorrelation),
		errors.Is(err, outreachdomain.ErrInvalidDateRange),
		errors.Is(err, summarydomain.ErrInvalidDate),
		errors.Is(err, thresholddomain.ErrInvalidName),
		errors.Is(err, thresholddomain.ErrInvalidLimit),
		errors.Is(err, thresholddomain.ErrInvalidWindow),
		errors.Is(err, overviewdomain.ErrInvalidGroupBy),
		errors.Is(err, overviewdomain.ErrInvalidDateRange),
		errors.Is(err, overviewdomain.ErrInvalidDays):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, pricingdomain.ErrPricingNotFound),
		errors.Is(err, outreachdomain.ErrUnknownCorrelation),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	code := err.Error()
	if strings.HasPrefix(code, "invalid_") {
		return code
	}
	return "invalid_request"
}
