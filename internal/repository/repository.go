package repository

import (
	"time"

	"github.com/taskify-dev/taskify-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List retrieves users with pagination
	List(page, pageSize int) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete soft deletes a user
	Delete(id uint64) error
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a team together with its initial members
	Create(team *models.Team, members []models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// Delete deletes a team and all related data
	Delete(id uint64) error

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(teamID, userID uint64) error

	// FindMember finds a specific team member
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// UpdateMemberRole changes the role of a team member
	UpdateMemberRole(teamID, userID uint64, role models.UserRole) error

	// ListMembershipsByUser lists all team memberships of a user
	ListMembershipsByUser(userID uint64) ([]models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List retrieves projects with pagination
	List(page, pageSize int) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete soft deletes a project and its tasks
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// UpdateDates updates only the scheduling fields of a task
	UpdateDates(taskID uint64, startDate, endDate *time.Time, isAllDay *bool) error

	// Delete soft deletes a task and its assignments
	Delete(id uint64) error

	// SetAssignees replaces the assignee set of a task
	SetAssignees(taskID uint64, userIDs []uint64) error

	// AddComment adds a comment to a task
	AddComment(comment *models.TaskComment) error

	// FindComment finds a comment on a task
	FindComment(taskID, commentID uint64) (*models.TaskComment, error)

	// DeleteComment removes a comment from a task
	DeleteComment(commentID uint64) error

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(userIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID      *uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	CreatorID      *uint64
	AssignedUserID *uint64
	EndDateFrom    *time.Time
	EndDateTo      *time.Time
	Search         string
	SortByEndDate  bool
	Page           int
	PageSize       int
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch persists a batch of notifications
	CreateBatch(notifications []models.Notification) error

	// ListByReceiver lists notifications for a user, newest first
	ListByReceiver(receiverID uint64, page, pageSize int) ([]models.Notification, int64, error)

	// MarkRead marks a notification as read
	MarkRead(id, receiverID uint64) error
}
