package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/service"
)

// IdempotencyKeyHeader lets clients supply the event id without a body field
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxHistoryDays bounds GET /api/v1/history
const MaxHistoryDays = 366

// IntakeHandler handles intake writes and day reads
type IntakeHandler struct {
	ledger service.LedgerService
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(ledger service.LedgerService) *IntakeHandler {
	return &IntakeHandler{ledger: ledger}
}

// AddIntake handles POST /api/v1/intake
func (h *IntakeHandler) AddIntake(c *gin.Context) {
	var req models.AddIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if req.ID == "" {
		req.ID = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.ledger.AddIntake(c.Request.Context(), &req)
	if err != nil {
		field, value := "amount_ml", ""
		if req.ID != "" {
			field, value = "id", req.ID
		}
		writeServiceError(c, err, field, value)
		return
	}

	// 201 for a new event, 200 when the id was already journaled
	if result.Duplicate {
		c.JSON(http.StatusOK, result)
		return
	}
	logger.Ctx(c.Request.Context()).Debug("intake recorded",
		logger.EventID(result.EventID),
		logger.Int("amount_ml", req.AmountMilliliters),
		logger.Day(result.DayKey),
	)
	c.JSON(http.StatusCreated, result)
}

// RemoveIntake handles POST /api/v1/intake/remove
func (h *IntakeHandler) RemoveIntake(c *gin.Context) {
	var req models.RemoveIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.ledger.RemoveIntake(c.Request.Context(), req.AmountMilliliters)
	if err != nil {
		writeServiceError(c, err, "amount_ml", "")
		return
	}
	respond(c, result)
}

// ResetToday handles POST /api/v1/intake/reset
func (h *IntakeHandler) ResetToday(c *gin.Context) {
	result, err := h.ledger.ResetToday(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	respond(c, result)
}

// GetToday handles GET /api/v1/intake/today
func (h *IntakeHandler) GetToday(c *gin.Context) {
	record, err := h.ledger.GetDailyTotal(c.Request.Context(), "")
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	respond(c, record)
}

// GetDay handles GET /api/v1/days/:day
func (h *IntakeHandler) GetDay(c *gin.Context) {
	raw := c.Param("day")
	day, err := daykey.Parse(raw)
	if err != nil {
		writeServiceError(c, err, "day", raw)
		return
	}

	record, err := h.ledger.GetDayRecord(c.Request.Context(), day)
	if err != nil {
		writeServiceError(c, err, "day", raw)
		return
	}
	respond(c, record)
}

// GetHistory handles GET /api/v1/history?days=N
func (h *IntakeHandler) GetHistory(c *gin.Context) {
	days, ok := queryInt(c, "days", service.DefaultStatsPeriodDays, false)
	if !ok {
		return
	}
	days = min(days, MaxHistoryDays)

	records, err := h.ledger.GetLastNDays(c.Request.Context(), days)
	if err != nil {
		writeServiceError(c, err, "days", "")
		return
	}
	respond(c, gin.H{"days": records})
}

// Rebuild handles POST /api/v1/rebuild
func (h *IntakeHandler) Rebuild(c *gin.Context) {
	report, err := h.ledger.Rebuild(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}
	if len(report.Repaired) > 0 {
		logger.Ctx(c.Request.Context()).Warn("ledger repaired from journal",
			logger.Int("days_checked", report.DaysChecked),
			logger.Int("days_repaired", len(report.Repaired)),
		)
	}
	respond(c, report)
}
