// internal/handlers/audit/audit_handler.go
package audit

import (
	"net/http"
	"strconv"

	"solarcrm-service/internal/pkg/response"
	service "solarcrm-service/internal/service/lifecycle"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	lifecycleService *service.LifecycleService
}

func NewAuditHandler(lifecycleService *service.LifecycleService) *AuditHandler {
	return &AuditHandler{
		lifecycleService: lifecycleService,
	}
}

type restoreRequest struct {
	RestoredBy string `json:"restored_by" binding:"omitempty,max=100"`
}

// DeleteRecord soft-deletes a record and returns the snapshot taken of it.
// Deleting an already-deleted record returns the existing snapshot.
func (h *AuditHandler) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record ID", err)
		return
	}

	snap, err := h.lifecycleService.SoftDelete(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to delete record", err)
		return
	}

	response.Success(c, http.StatusOK, "record deleted", snap)
}

// RestoreRecord reactivates the record a snapshot was taken from.
func (h *AuditHandler) RestoreRecord(c *gin.Context) {
	snapshotID := c.Param("snapshot_id")
	if snapshotID == "" {
		response.Error(c, http.StatusBadRequest, "snapshot ID is required", nil)
		return
	}

	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if req.RestoredBy == "" {
		req.RestoredBy = "system"
	}

	rec, err := h.lifecycleService.Restore(c.Request.Context(), snapshotID, req.RestoredBy)
	if err != nil {
		response.FromError(c, "failed to restore record", err)
		return
	}

	response.Success(c, http.StatusOK, "record restored", rec)
}

// ListDeleted retrieves snapshots of records still in the trash.
func (h *AuditHandler) ListDeleted(c *gin.Context) {
	snaps, err := h.lifecycleService.ListDeleted(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list deleted records", err)
		return
	}

	response.Success(c, http.StatusOK, "deleted records retrieved", snaps)
}

// ListRestored retrieves snapshots whose records have been restored.
func (h *AuditHandler) ListRestored(c *gin.Context) {
	snaps, err := h.lifecycleService.ListRestored(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list restored records", err)
		return
	}

	response.Success(c, http.StatusOK, "restored records retrieved", snaps)
}
