package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/models"
)

// RequireTeamAccess checks if the user is a member of the team
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamIDStr := c.Param("id")
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid team ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().Preload("Creator").First(&team, teamID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			c.Abort()
			return
		}

		var member models.TeamMember
		err = database.GetDB().Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking team existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTeam, team)
		c.Set(constants.ContextKeyTeamMember, member)
		c.Next()
	}
}

// RequireTeamAdmin checks if the user has the ADMIN role in the team
func RequireTeamAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get(constants.ContextKeyTeamMember)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Team access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.TeamMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid team member data",
			})
			c.Abort()
			return
		}

		if member.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only team admins can perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
