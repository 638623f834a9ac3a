package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/service"
)

// InsightsHandler handles insights-related HTTP requests
type InsightsHandler struct {
	insights service.InsightsService
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insights service.InsightsService) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// GetCorrelations returns hydration/wellbeing correlations
// GET /api/v1/insights/correlations
func (h *InsightsHandler) GetCorrelations(c *gin.Context) {
	correlations, err := h.insights.GetCorrelationInsights(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	respond(c, gin.H{
		"correlations": correlations,
		"window_days":  service.CorrelationWindow,
	})
}
