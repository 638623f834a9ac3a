package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/apierror"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/service"
)

// writeServiceError maps a service error onto a Problem Details response.
// field names the request field that carried the offending value, if any.
func writeServiceError(c *gin.Context, err error, field, value string) {
	requestID := apierror.GetRequestID(c)

	switch {
	case errors.Is(err, service.ErrStorage):
		logger.Ctx(c.Request.Context()).Error("storage unavailable", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewStorageUnavailableError(requestID, apierror.DefaultRetryAfter))
	case errors.Is(err, service.ErrWidgetQueue):
		logger.Ctx(c.Request.Context()).Warn("widget queue unavailable", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewWidgetQueueError(requestID, apierror.DefaultRetryAfter))
	case errors.Is(err, service.ErrInvalidUUID), errors.Is(err, service.ErrNotUUIDv7):
		apierror.WriteProblem(c, apierror.NewInvalidUUIDError(requestID, field, value))
	case errors.Is(err, service.ErrFutureTimestamp):
		apierror.WriteProblem(c, apierror.NewFutureTimestampError(requestID, field))
	case errors.Is(err, service.ErrInvalidDayKey):
		apierror.WriteProblem(c, apierror.NewInvalidDayKeyError(requestID, field, value))
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidGoal),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrInvalidMetric),
		errors.Is(err, service.ErrInvalidRolloverHour):
		apierror.WriteProblem(c, apierror.NewFieldError(requestID, field, err.Error(), "invalid_value"))
	case errors.Is(err, service.ErrFutureDay):
		apierror.WriteProblem(c, apierror.NewFieldError(requestID, field, err.Error(), "future_day"))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

// writeBindError reports a body that could not be decoded or is missing
// required fields
func writeBindError(c *gin.Context, err error) {
	apierror.WriteProblem(c, apierror.NewBadRequestError(apierror.GetRequestID(c), err.Error(), "Invalid request body"))
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is absent. ok is false after an error response was written.
func queryInt(c *gin.Context, name string, def int, allowZero bool) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || (n == 0 && !allowZero) {
		apierror.WriteProblem(c, apierror.NewFieldError(apierror.GetRequestID(c), name,
			"must be a positive integer", "invalid_format"))
		return 0, false
	}
	return n, true
}

// respond writes v as JSON with status 200
func respond(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}
