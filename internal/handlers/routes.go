package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler mounted under /api/v1
type Handlers struct {
	Intake   *IntakeHandler
	Sync     *SyncHandler
	Stats    *StatsHandler
	Insights *InsightsHandler
	Health   *HealthHandler
	Settings *SettingsHandler
}

// Register mounts the API routes on v1
func (h *Handlers) Register(v1 *gin.RouterGroup) {
	// Intake routes
	v1.POST("/intake", h.Intake.AddIntake)
	v1.POST("/intake/remove", h.Intake.RemoveIntake)
	v1.POST("/intake/reset", h.Intake.ResetToday)
	v1.GET("/intake/today", h.Intake.GetToday)
	v1.GET("/days/:day", h.Intake.GetDay)
	v1.GET("/history", h.Intake.GetHistory)
	v1.POST("/rebuild", h.Intake.Rebuild)

	v1.POST("/sync", h.Sync.Sync)

	// Statistics routes
	v1.GET("/stats", h.Stats.GetStats)
	v1.GET("/stats/weekly", h.Stats.GetWeeklyStats)
	v1.GET("/stats/monthly", h.Stats.GetMonthlyStats)
	v1.GET("/stats/distribution", h.Stats.GetDistribution)
	v1.GET("/insights/correlations", h.Insights.GetCorrelations)

	// Health log routes
	v1.POST("/health-logs", h.Health.LogHealth)
	v1.GET("/health-logs", h.Health.GetRecent)
	v1.GET("/health-logs/averages", h.Health.GetAverages)
	v1.GET("/health-logs/trend/:metric", h.Health.GetTrend)

	// Settings routes
	v1.GET("/settings/rollover", h.Settings.GetRollover)
	v1.PUT("/settings/rollover", h.Settings.UpdateRollover)
	v1.GET("/settings/goal", h.Settings.GetGoal)
	v1.PUT("/settings/goal", h.Settings.UpdateGoal)
}
