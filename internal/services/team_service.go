package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
)

var (
	ErrTeamNotFound            = errors.New("team not found")
	ErrInvalidTeamName         = errors.New("team name cannot be empty")
	ErrAlreadyTeamMember       = errors.New("user is already a team member")
	ErrTeamMemberNotFound      = errors.New("team member not found")
	ErrCannotRemoveCreator     = errors.New("the team creator cannot be removed")
	ErrCannotChangeCreatorRole = errors.New("the team creator role cannot be changed")
)

// TeamService provides business logic for team operations.
type TeamService struct {
	teamRepo      repository.TeamRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository, notifications *NotificationService) *TeamService {
	return &TeamService{
		teamRepo:      teamRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// TeamMemberInput pairs a user with the role they get in the team.
type TeamMemberInput struct {
	UserID uint64
	Role   models.UserRole
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name        string
	Description string
	Picture     string
	CreatorID   uint64
	Members     []TeamMemberInput
}

// CreateTeam creates a team with its initial member set. Duplicate member
// entries are collapsed and the creator always joins with the ADMIN role,
// regardless of what the input says.
func (s *TeamService) CreateTeam(input CreateTeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidTeamName
	}

	team := &models.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Picture:     input.Picture,
		CreatorID:   input.CreatorID,
	}

	now := time.Now()
	members := []models.TeamMember{{
		UserID:   input.CreatorID,
		Role:     models.RoleAdmin,
		JoinedAt: now,
	}}

	seen := map[uint64]struct{}{input.CreatorID: {}}
	for _, m := range input.Members {
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}

		role := m.Role
		if !models.ValidUserRole(role) {
			role = models.RoleEngineer
		}

		if _, err := s.userRepo.FindByID(m.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Fields: map[string]string{
					"members": fmt.Sprintf("user %d does not exist", m.UserID),
				}}
			}
			return nil, fmt.Errorf("failed to verify member: %w", err)
		}

		members = append(members, models.TeamMember{
			UserID:   m.UserID,
			Role:     role,
			JoinedAt: now,
		})
	}

	if err := s.teamRepo.Create(team, members); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	receivers := make([]uint64, 0, len(members)-1)
	for _, m := range members {
		if m.UserID != input.CreatorID {
			receivers = append(receivers, m.UserID)
		}
	}
	s.notifications.Notify(receivers,
		fmt.Sprintf("/teams/%d", team.ID),
		fmt.Sprintf("You were added to the team %q", team.Name))
	s.notifications.Notify([]uint64{input.CreatorID},
		fmt.Sprintf("/teams/%d", team.ID),
		fmt.Sprintf("You created the team %q", team.Name))

	return s.teamRepo.FindByID(team.ID)
}

// GetTeamWithMembers returns a team and all of its members.
func (s *TeamService) GetTeamWithMembers(teamID uint64) (*models.Team, []models.TeamMember, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, fmt.Errorf("failed to find team: %w", err)
	}

	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return team, members, nil
}

// UpdateTeamInput represents updatable team fields.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	Picture     *string
}

// UpdateTeam applies a partial update to a team.
func (s *TeamService) UpdateTeam(teamID uint64, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidTeamName
		}
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	if input.Picture != nil {
		team.Picture = *input.Picture
	}

	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	s.notifications.Notify(s.memberIDs(teamID),
		fmt.Sprintf("/teams/%d", teamID),
		fmt.Sprintf("The team %q was updated", team.Name))

	return team, nil
}

// DeleteTeam removes a team and its memberships. Former members are told
// afterwards; the notification outlives the team on purpose.
func (s *TeamService) DeleteTeam(teamID uint64) error {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	// Capture the member list before the memberships are gone.
	receivers := s.memberIDs(teamID)

	if err := s.teamRepo.Delete(teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.notifications.Notify(receivers,
		"/teams",
		fmt.Sprintf("The team %q was deleted", team.Name))

	return nil
}

// AddMember adds a user to the team with the given role.
func (s *TeamService) AddMember(teamID, userID uint64, role models.UserRole) (*models.TeamMember, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.teamRepo.FindMember(teamID, userID); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	if !models.ValidUserRole(role) {
		role = models.RoleEngineer
	}

	member := &models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}

	if err := s.teamRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.notifications.Notify([]uint64{userID},
		fmt.Sprintf("/teams/%d", teamID),
		fmt.Sprintf("You were added to the team %q", team.Name))

	return member, nil
}

// RemoveMember removes a member from the team. The creator can never be
// removed.
func (s *TeamService) RemoveMember(teamID, userID uint64) error {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if team.CreatorID == userID {
		return ErrCannotRemoveCreator
	}

	if _, err := s.teamRepo.FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}

	if err := s.teamRepo.RemoveMember(teamID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.notifications.Notify([]uint64{userID},
		"/teams",
		fmt.Sprintf("You were removed from the team %q", team.Name))

	return nil
}

// UpdateMemberRole changes the role of an existing member. The creator
// keeps the ADMIN role permanently.
func (s *TeamService) UpdateMemberRole(teamID, userID uint64, role models.UserRole) error {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if !models.ValidUserRole(role) {
		return &ValidationError{Fields: map[string]string{"role": "unknown role: " + string(role)}}
	}

	if team.CreatorID == userID && role != models.RoleAdmin {
		return ErrCannotChangeCreatorRole
	}

	if err := s.teamRepo.UpdateMemberRole(teamID, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to update member role: %w", err)
	}

	s.notifications.Notify([]uint64{userID},
		fmt.Sprintf("/teams/%d", teamID),
		fmt.Sprintf("Your role in the team %q is now %s", team.Name, role))

	return nil
}

// memberIDs collects the current member user ids of a team. Listing
// failures only cost the notification, so they are swallowed.
func (s *TeamService) memberIDs(teamID uint64) []uint64 {
	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// ListTeamsForUser returns all team memberships of a user with the team
// preloaded. Created and joined views are derived from this single set.
func (s *TeamService) ListTeamsForUser(userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.teamRepo.ListMembershipsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return memberships, nil
}
