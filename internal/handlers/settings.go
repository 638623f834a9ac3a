package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/service"
)

// SettingsHandler handles the rollover hour and daily goal
type SettingsHandler struct {
	settings service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetRollover handles GET /api/v1/settings/rollover
func (h *SettingsHandler) GetRollover(c *gin.Context) {
	settings, err := h.settings.GetRollover(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	respond(c, settings)
}

// UpdateRollover handles PUT /api/v1/settings/rollover
func (h *SettingsHandler) UpdateRollover(c *gin.Context) {
	var req models.UpdateRolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	settings, err := h.settings.SetRolloverHour(c.Request.Context(), *req.RolloverHour)
	if err != nil {
		writeServiceError(c, err, "rollover_hour", "")
		return
	}
	respond(c, settings)
}

// GetGoal handles GET /api/v1/settings/goal
func (h *SettingsHandler) GetGoal(c *gin.Context) {
	goal, err := h.settings.GetDailyGoal(c.Request.Context(), "")
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	respond(c, gin.H{"goal_ml": goal})
}

// UpdateGoal handles PUT /api/v1/settings/goal. Days already written keep
// the goal they were recorded with.
func (h *SettingsHandler) UpdateGoal(c *gin.Context) {
	var req models.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.settings.SetDailyGoal(c.Request.Context(), req.GoalMilliliters); err != nil {
		writeServiceError(c, err, "goal_ml", "")
		return
	}
	respond(c, gin.H{"goal_ml": req.GoalMilliliters})
}
