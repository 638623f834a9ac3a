package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/service"
)

// MaxHealthDays matches the retention of health logs
const MaxHealthDays = service.HealthRetentionDays

// HealthHandler handles self-reported wellbeing logs
type HealthHandler struct {
	health service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// LogHealth handles POST /api/v1/health-logs. Logging the same day again
// replaces its levels; notes are kept unless the body sets them.
func (h *HealthHandler) LogHealth(c *gin.Context) {
	var req models.LogHealthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	log, err := h.health.LogDailyHealth(c.Request.Context(), &req)
	if err != nil {
		field := "date"
		if errors.Is(err, service.ErrInvalidLevel) {
			field = "levels"
		}
		writeServiceError(c, err, field, req.Date)
		return
	}
	c.JSON(http.StatusCreated, log)
}

// GetRecent handles GET /api/v1/health-logs?days=N
func (h *HealthHandler) GetRecent(c *gin.Context) {
	days, ok := queryInt(c, "days", service.DefaultHealthDays, false)
	if !ok {
		return
	}

	logs, err := h.health.GetRecentHealthLogs(c.Request.Context(), min(days, MaxHealthDays))
	if err != nil {
		writeServiceError(c, err, "days", "")
		return
	}
	respond(c, gin.H{"logs": logs})
}

// GetAverages handles GET /api/v1/health-logs/averages?days=N
func (h *HealthHandler) GetAverages(c *gin.Context) {
	days, ok := queryInt(c, "days", service.DefaultHealthDays, false)
	if !ok {
		return
	}

	averages, err := h.health.GetHealthAverages(c.Request.Context(), min(days, MaxHealthDays))
	if err != nil {
		writeServiceError(c, err, "days", "")
		return
	}
	respond(c, averages)
}

// GetTrend handles GET /api/v1/health-logs/trend/:metric
func (h *HealthHandler) GetTrend(c *gin.Context) {
	metric := models.Metric(c.Param("metric"))

	trend, err := h.health.GetHealthTrend(c.Request.Context(), metric)
	if err != nil {
		writeServiceError(c, err, "metric", string(metric))
		return
	}
	respond(c, gin.H{"metric": metric, "trend": trend})
}
