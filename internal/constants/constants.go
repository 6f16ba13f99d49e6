package constants

import "time"

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID     = "user_id"
	ContextKeyUserRoles  = "user_roles"
	ContextKeyTeam       = "team"
	ContextKeyTeamMember = "team_member"
	ContextKeyTask       = "task"
)

const (
	SessionCookieName = "taskify_session"

	MinPasswordLength = 8
	MaxSkills         = 10

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	VerificationCodeLength = 6
	VerificationCodeTTL    = 10 * time.Minute

	TokenTTL = 24 * time.Hour

	MaxAISuggestedTasks = 20
)
