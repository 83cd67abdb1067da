// internal/domain/record/dto.go
package record

import "solarcrm-service/internal/workflow"

// Patch carries caller-supplied fields for a create or update. Nil means
// "not provided". Derived sizing and workflow fields are deliberately
// absent: sizing is always recomputed from ModuleCount and workflows only
// move through their advance operations.
type Patch struct {
	CustomerName *string  `json:"customer_name" binding:"omitempty,max=100"`
	Phone        *string  `json:"phone" binding:"omitempty,max=20"`
	Address      *string  `json:"address" binding:"omitempty,max=255"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
	ModuleCount  *int     `json:"module_count"`

	// Team assignment; empty string unassigns.
	ConstructionTeam *string `json:"construction_team" binding:"omitempty,max=100"`
}

// AdvanceReviewRequest drives the technical-review workflow.
type AdvanceReviewRequest struct {
	Outcome string  `json:"outcome" binding:"required"`
	Notes   *string `json:"notes"`
}

// AdvanceAcceptanceRequest drives the construction-acceptance workflow.
type AdvanceAcceptanceRequest struct {
	Outcome string  `json:"outcome" binding:"required"`
	Days    *int    `json:"days"`
	Notes   *string `json:"notes"`
}

type ListFilters struct {
	Search           string `form:"search"` // name, phone or team
	TechnicalStatus  string `form:"technical_status" binding:"omitempty,oneof=pending approved rejected"`
	AcceptanceStatus string `form:"acceptance_status" binding:"omitempty,oneof=pending waiting completed"`
	Team             string `form:"team"`
	Page             int    `form:"page" binding:"omitempty,min=1"`
	PageSize         int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy           string `form:"sort_by"` // created_at, customer_name, module_count
	SortOrder        string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

type ListResponse struct {
	Records    []CustomerRecord `json:"records"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// RecordView is a CustomerRecord plus the derived waiting countdown, the
// shape handed to API consumers.
type RecordView struct {
	CustomerRecord
	Waiting *workflow.WaitingView `json:"waiting,omitempty"`
}
