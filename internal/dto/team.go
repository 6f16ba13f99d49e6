package dto

import (
	"time"

	"github.com/taskify-dev/taskify-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   uint64 `json:"creator_id"`
	Picture     string `json:"picture,omitempty"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	User     UserDTO         `json:"user"`
	Role     models.UserRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// TeamDetailDTO represents detailed team information
type TeamDetailDTO struct {
	TeamDTO
	Members  []TeamMemberDTO `json:"members"`
	YourRole models.UserRole `json:"your_role"`
}

// TeamWithRoleDTO represents a team with the requesting user's role
type TeamWithRoleDTO struct {
	TeamDTO
	Role models.UserRole `json:"role"`
}

// TeamViewsDTO carries the derived team lists for the current user. The
// views are computed server-side from one membership query so clients no
// longer maintain redundant copies.
type TeamViewsDTO struct {
	Created []TeamWithRoleDTO `json:"created"`
	Joined  []TeamWithRoleDTO `json:"joined"`
	All     []TeamWithRoleDTO `json:"all"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatorID:   team.CreatorID,
		Picture:     team.Picture,
	}
}

// ToTeamMemberDTO converts a member to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToTeamDetailDTO converts a team with members to detailed DTO
func ToTeamDetailDTO(team models.Team, members []models.TeamMember, yourRole models.UserRole) TeamDetailDTO {
	memberDTOs := make([]TeamMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToTeamMemberDTO(member)
	}

	return TeamDetailDTO{
		TeamDTO:  ToTeamDTO(team),
		Members:  memberDTOs,
		YourRole: yourRole,
	}
}

// ToTeamViewsDTO derives the created/joined/all views from the user's
// memberships.
func ToTeamViewsDTO(userID uint64, memberships []models.TeamMember) TeamViewsDTO {
	views := TeamViewsDTO{
		Created: []TeamWithRoleDTO{},
		Joined:  []TeamWithRoleDTO{},
		All:     []TeamWithRoleDTO{},
	}

	for _, m := range memberships {
		entry := TeamWithRoleDTO{
			TeamDTO: ToTeamDTO(m.Team),
			Role:    m.Role,
		}
		views.All = append(views.All, entry)
		if m.Team.CreatorID == userID {
			views.Created = append(views.Created, entry)
		} else {
			views.Joined = append(views.Joined, entry)
		}
	}

	return views
}
