package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/service"
)

// MaxStatsDays bounds the days parameter of the stats endpoints
const MaxStatsDays = 366

// StatsHandler handles statistics requests
type StatsHandler struct {
	stats service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats handles GET /api/v1/stats?days=N
func (h *StatsHandler) GetStats(c *gin.Context) {
	days, ok := queryInt(c, "days", service.DefaultStatsPeriodDays, false)
	if !ok {
		return
	}

	stats, err := h.stats.GetStats(c.Request.Context(), min(days, MaxStatsDays))
	if err != nil {
		writeServiceError(c, err, "days", "")
		return
	}
	respond(c, stats)
}

// GetWeeklyStats handles GET /api/v1/stats/weekly?offset=N
// where offset counts weeks back from the current one
func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0, true)
	if !ok {
		return
	}

	stats, err := h.stats.GetWeeklyStats(c.Request.Context(), offset)
	if err != nil {
		writeServiceError(c, err, "offset", "")
		return
	}
	respond(c, stats)
}

// GetMonthlyStats handles GET /api/v1/stats/monthly?offset=N
func (h *StatsHandler) GetMonthlyStats(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0, true)
	if !ok {
		return
	}

	stats, err := h.stats.GetMonthlyStats(c.Request.Context(), offset)
	if err != nil {
		writeServiceError(c, err, "offset", "")
		return
	}
	respond(c, stats)
}

// GetDistribution handles GET /api/v1/stats/distribution?days=N
func (h *StatsHandler) GetDistribution(c *gin.Context) {
	days, ok := queryInt(c, "days", service.DefaultDistributionDays, false)
	if !ok {
		return
	}

	dist, err := h.stats.GetDistribution(c.Request.Context(), min(days, MaxStatsDays))
	if err != nil {
		writeServiceError(c, err, "days", "")
		return
	}
	respond(c, dist)
}
