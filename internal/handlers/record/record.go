// internal/handlers/record/record_handler.go
package record

import (
	"net/http"
	"strconv"

	"solarcrm-service/internal/domain/record"
	"solarcrm-service/internal/pkg/response"
	service "solarcrm-service/internal/service/record"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	recordService *service.RecordService
}

func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// CreateRecord creates a customer record from a patch; derived sizing fields
// are computed server-side.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var patch record.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.recordService.CreateOrUpdate(c.Request.Context(), 0, patch)
	if err != nil {
		response.FromError(c, "failed to create record", err)
		return
	}

	response.Success(c, http.StatusCreated, "record created", result)
}

// UpdateRecord applies a partial update to an existing record.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	id, err := h.recordID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record ID", err)
		return
	}

	var patch record.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.recordService.CreateOrUpdate(c.Request.Context(), id, patch)
	if err != nil {
		response.FromError(c, "failed to update record", err)
		return
	}

	response.Success(c, http.StatusOK, "record updated", result)
}

// GetRecord retrieves one record with its acceptance countdown, if any.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	id, err := h.recordID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record ID", err)
		return
	}

	result, err := h.recordService.View(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "record not found", err)
		return
	}

	response.Success(c, http.StatusOK, "record retrieved", result)
}

// ListRecords retrieves a filtered, paginated page of active records.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	var filters record.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid filters", err)
		return
	}

	result, err := h.recordService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list records", err)
		return
	}

	response.Success(c, http.StatusOK, "records retrieved", result)
}

// AdvanceReview moves the technical review workflow.
func (h *RecordHandler) AdvanceReview(c *gin.Context) {
	id, err := h.recordID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record ID", err)
		return
	}

	var req record.AdvanceReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.recordService.AdvanceTechnicalReview(c.Request.Context(), id, req.Outcome, req.Notes)
	if err != nil {
		response.FromError(c, "failed to advance technical review", err)
		return
	}

	response.Success(c, http.StatusOK, "technical review updated", result)
}

// AdvanceAcceptance moves the construction acceptance workflow.
func (h *RecordHandler) AdvanceAcceptance(c *gin.Context) {
	id, err := h.recordID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid record ID", err)
		return
	}

	var req record.AdvanceAcceptanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.recordService.AdvanceConstructionAcceptance(c.Request.Context(), id, req.Outcome, req.Days, req.Notes)
	if err != nil {
		response.FromError(c, "failed to advance construction acceptance", err)
		return
	}

	response.Success(c, http.StatusOK, "construction acceptance updated", result)
}

func (h *RecordHandler) recordID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
