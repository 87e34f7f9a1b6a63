package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/storefront/internal/middleware"
	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/team"
	"go.uber.org/zap"
)

// TeamHandler manages the current tenant's members. Every route sits
// behind RequireTenant and RequireTeamManager.
type TeamHandler struct {
	manager *team.Manager
	logger  *zap.Logger
}

func NewTeamHandler(manager *team.Manager, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{manager: manager, logger: logger}
}

// teamResponse carries the rows and the outcome message of the operation.
type teamResponse struct {
	Status  string              `json:"status,omitempty"`
	Members []models.TeamMember `json:"members"`
}

func (h *TeamHandler) roster(c *gin.Context) (*team.Roster, bool) {
	r := team.NewRoster(h.manager, middleware.GetTenantID(c))
	if err := r.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": r.Status()})
		return nil, false
	}
	return r, true
}

// List handles GET /v1/team
func (h *TeamHandler) List(c *gin.Context) {
	r, ok := h.roster(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, teamResponse{Members: r.Rows()})
}

type inviteRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role" binding:"required"`
}

// Invite handles POST /v1/team
//
// Inviting an existing member changes their role.
func (h *TeamHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, ok := h.roster(c)
	if !ok {
		return
	}

	if err := r.Invite(c.Request.Context(), req.Email, req.Role); err != nil {
		c.JSON(teamErrorStatus(err), gin.H{"error": r.Status()})
		return
	}
	c.JSON(http.StatusOK, teamResponse{Status: r.Status(), Members: r.Rows()})
}

// Remove handles DELETE /v1/team/:uid
func (h *TeamHandler) Remove(c *gin.Context) {
	r, ok := h.roster(c)
	if !ok {
		return
	}

	if err := r.Remove(c.Request.Context(), c.Param("uid")); err != nil {
		c.JSON(teamErrorStatus(err), gin.H{"error": r.Status()})
		return
	}
	c.JSON(http.StatusOK, teamResponse{Status: r.Status(), Members: r.Rows()})
}

func teamErrorStatus(err error) int {
	switch {
	case errors.Is(err, team.ErrNoSuchUser), errors.Is(err, team.ErrNotMember):
		return http.StatusNotFound
	case errors.Is(err, team.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, team.ErrOwnerRemoval), errors.Is(err, team.ErrOwnerDemoted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
