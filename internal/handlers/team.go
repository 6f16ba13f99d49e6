package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/dto"
	apierrors "github.com/taskify-dev/taskify-api/internal/errors"
	"github.com/taskify-dev/taskify-api/internal/middleware"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/services"
)

// TeamHandler coordinates team management HTTP handlers.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a new team with its initial members.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type MemberRequest struct {
		UserID dto.Ref `json:"user_id"`
		Role   string  `json:"role"`
	}
	type CreateTeamRequest struct {
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		Picture     string          `json:"picture"`
		Members     []MemberRequest `json:"members"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	members := make([]services.TeamMemberInput, 0, len(req.Members))
	for _, m := range req.Members {
		if !m.UserID.Valid {
			continue
		}
		members = append(members, services.TeamMemberInput{
			UserID: m.UserID.ID,
			Role:   models.UserRole(m.Role),
		})
	}

	team, err := h.teamService.CreateTeam(services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Picture:     req.Picture,
		CreatorID:   userID,
		Members:     members,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListUserTeams returns the created, joined and combined team views for
// the current user.
func (h *TeamHandler) ListUserTeams(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.teamService.ListTeamsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch teams")
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamViewsDTO(userID, memberships))
}

// GetTeam returns team details with members.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	// Team and membership are loaded by RequireTeamAccess middleware
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	memberInterface, _ := c.Get(constants.ContextKeyTeamMember)
	member := memberInterface.(models.TeamMember)

	_, members, err := h.teamService.GetTeamWithMembers(team.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(team, members, member.Role))
}

// UpdateTeam applies a partial update to a team.
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	type UpdateTeamRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Picture     *string `json:"picture"`
	}

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.teamService.UpdateTeam(team.ID, services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Picture:     req.Picture,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*updated))
}

// DeleteTeam removes a team.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	if err := h.teamService.DeleteTeam(team.ID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
	})
}

// AddMember adds a user to the team.
func (h *TeamHandler) AddMember(c *gin.Context) {
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	type AddMemberRequest struct {
		UserID dto.Ref `json:"user_id" binding:"required"`
		Role   string  `json:"role"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.UserID.Valid {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamService.AddMember(team.ID, req.UserID.ID, models.UserRole(req.Role))
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Member added successfully",
		"member": gin.H{
			"user_id":   member.UserID,
			"role":      member.Role,
			"joined_at": member.JoinedAt,
		},
	})
}

// RemoveMember removes a user from the team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.teamService.RemoveMember(team.ID, targetID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// UpdateMemberRole changes a member's role.
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	teamInterface, _ := c.Get(constants.ContextKeyTeam)
	team := teamInterface.(models.Team)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.teamService.UpdateMemberRole(team.ID, targetID, models.UserRole(req.Role)); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member role updated successfully",
	})
}

func respondTeamError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, services.ErrInvalidTeamName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTeamMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyTeamMember):
		apierrors.Conflict(c, "User is already a team member")
	case errors.Is(err, services.ErrCannotRemoveCreator),
		errors.Is(err, services.ErrCannotChangeCreatorRole):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
