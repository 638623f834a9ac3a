package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/service"
)

// SyncHandler triggers widget reconciliation on demand
type SyncHandler struct {
	reconcile service.ReconcileService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(reconcile service.ReconcileService) *SyncHandler {
	return &SyncHandler{reconcile: reconcile}
}

// Sync handles POST /api/v1/sync
//
// Concurrent callers share one pass and receive the same result.
func (h *SyncHandler) Sync(c *gin.Context) {
	log := logger.Ctx(c.Request.Context())

	result, err := h.reconcile.SyncFromWidget(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "", "")
		return
	}

	log.Info("widget sync completed",
		logger.Int("synced", result.SyncedCount),
		logger.Int("duplicates", result.DuplicateCount),
		logger.Int("failed", result.FailedCount),
		logger.Int64("cursor", result.Cursor),
	)
	respond(c, result)
}
