// internal/handlers/team/team_handler.go
package team

import (
	"net/http"

	"solarcrm-service/internal/domain/team"
	"solarcrm-service/internal/pkg/response"
	service "solarcrm-service/internal/service/team"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teamService *service.TeamService
}

func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// UpsertTeam writes a directory entry and propagates its phone to every
// active record assigned to the team.
func (h *TeamHandler) UpsertTeam(c *gin.Context) {
	var req team.UpsertTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.teamService.Upsert(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to save team", err)
		return
	}

	response.Success(c, http.StatusOK, "team saved", result)
}

// GetTeam retrieves a directory entry by name.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.Error(c, http.StatusBadRequest, "team name is required", nil)
		return
	}

	result, err := h.teamService.Get(c.Request.Context(), name)
	if err != nil {
		response.FromError(c, "team not found", err)
		return
	}

	response.Success(c, http.StatusOK, "team retrieved", result)
}

// ListTeams retrieves the whole directory.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	result, err := h.teamService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list teams", err)
		return
	}

	response.Success(c, http.StatusOK, "teams retrieved", result)
}
