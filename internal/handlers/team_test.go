package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/dto"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/services"
)

type teamTestEnv struct {
	db          *gorm.DB
	handler     *TeamHandler
	teamService *services.TeamService
}

func setupTeamTestEnv(t *testing.T) teamTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Notification{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	teamRepo := repository.NewTeamRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notifications := services.NewNotificationService(notificationRepo, services.NoopDispatcher{})
	teamService := services.NewTeamService(teamRepo, userRepo, notifications)
	handler := NewTeamHandler(teamService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return teamTestEnv{
		db:          db,
		handler:     handler,
		teamService: teamService,
	}
}

func (env teamTestEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{FullName: "User " + email, Email: email, PasswordHash: "x"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func TestTeamHandler_CreateTeamDeduplicatesAndForcesCreatorAdmin(t *testing.T) {
	env := setupTeamTestEnv(t)

	creator := env.createUser(t, "creator@example.com")
	other := env.createUser(t, "other@example.com")

	payload := map[string]any{
		"name": "Backend",
		"members": []map[string]any{
			// The creator appears twice and with a weaker role; both must
			// be ignored in favor of a single ADMIN membership.
			{"user_id": creator.ID, "role": "ENGINEER"},
			{"user_id": other.ID, "role": "MANAGER"},
			{"user_id": other.ID, "role": "GUEST"},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/api/teams", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, creator.ID)
		env.handler.CreateTeam(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/teams", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TeamDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, creator.ID, response.CreatorID)

	var members []models.TeamMember
	require.NoError(t, env.db.Where("team_id = ?", response.ID).Find(&members).Error)
	require.Len(t, members, 2)

	roles := map[uint64]models.UserRole{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	require.Equal(t, models.RoleAdmin, roles[creator.ID])
	require.Equal(t, models.RoleManager, roles[other.ID])
}

func TestTeamService_AddMemberConflict(t *testing.T) {
	env := setupTeamTestEnv(t)

	creator := env.createUser(t, "creator@example.com")
	other := env.createUser(t, "other@example.com")

	team, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Backend",
		CreatorID: creator.ID,
	})
	require.NoError(t, err)

	_, err = env.teamService.AddMember(team.ID, other.ID, models.RoleEngineer)
	require.NoError(t, err)

	_, err = env.teamService.AddMember(team.ID, other.ID, models.RoleGuest)
	require.ErrorIs(t, err, services.ErrAlreadyTeamMember)
}

func TestTeamService_RemoveCreatorForbidden(t *testing.T) {
	env := setupTeamTestEnv(t)

	creator := env.createUser(t, "creator@example.com")

	team, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Backend",
		CreatorID: creator.ID,
	})
	require.NoError(t, err)

	err = env.teamService.RemoveMember(team.ID, creator.ID)
	require.ErrorIs(t, err, services.ErrCannotRemoveCreator)

	// The membership is untouched.
	var count int64
	require.NoError(t, env.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", team.ID, creator.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTeamService_UpdateMemberRole(t *testing.T) {
	env := setupTeamTestEnv(t)

	creator := env.createUser(t, "creator@example.com")
	other := env.createUser(t, "other@example.com")
	stranger := env.createUser(t, "stranger@example.com")

	team, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Backend",
		CreatorID: creator.ID,
		Members:   []services.TeamMemberInput{{UserID: other.ID, Role: models.RoleEngineer}},
	})
	require.NoError(t, err)

	require.NoError(t, env.teamService.UpdateMemberRole(team.ID, other.ID, models.RoleManager))

	member, err := env.teamService.AddMember(team.ID, stranger.ID, models.RoleGuest)
	require.NoError(t, err)
	require.NoError(t, env.teamService.RemoveMember(team.ID, member.UserID))

	// Updating a non-member reports NOT_FOUND, not silent success.
	err = env.teamService.UpdateMemberRole(team.ID, stranger.ID, models.RoleManager)
	require.ErrorIs(t, err, services.ErrTeamMemberNotFound)

	// The creator can never lose the ADMIN role.
	err = env.teamService.UpdateMemberRole(team.ID, creator.ID, models.RoleEngineer)
	require.ErrorIs(t, err, services.ErrCannotChangeCreatorRole)
}

func (env teamTestEnv) notificationTexts(t *testing.T, receiverID uint64) []string {
	t.Helper()
	var notifications []models.Notification
	require.NoError(t, env.db.Where("receiver_id = ?", receiverID).Find(&notifications).Error)
	texts := make([]string, len(notifications))
	for i, n := range notifications {
		texts[i] = n.Text
	}
	return texts
}

func TestTeamService_MembershipNotifications(t *testing.T) {
	env := setupTeamTestEnv(t)

	creator := env.createUser(t, "creator@example.com")
	other := env.createUser(t, "other@example.com")

	team, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Backend",
		CreatorID: creator.ID,
		Members:   []services.TeamMemberInput{{UserID: other.ID, Role: models.RoleEngineer}},
	})
	require.NoError(t, err)

	require.Contains(t, env.notificationTexts(t, creator.ID), `You created the team "Backend"`)
	require.Contains(t, env.notificationTexts(t, other.ID), `You were added to the team "Backend"`)

	require.NoError(t, env.teamService.UpdateMemberRole(team.ID, other.ID, models.RoleManager))
	require.Contains(t, env.notificationTexts(t, other.ID), `Your role in the team "Backend" is now MANAGER`)

	description := "Server-side services"
	_, err = env.teamService.UpdateTeam(team.ID, services.UpdateTeamInput{Description: &description})
	require.NoError(t, err)
	require.Contains(t, env.notificationTexts(t, creator.ID), `The team "Backend" was updated`)
	require.Contains(t, env.notificationTexts(t, other.ID), `The team "Backend" was updated`)

	require.NoError(t, env.teamService.RemoveMember(team.ID, other.ID))
	require.Contains(t, env.notificationTexts(t, other.ID), `You were removed from the team "Backend"`)

	require.NoError(t, env.teamService.DeleteTeam(team.ID))
	require.Contains(t, env.notificationTexts(t, creator.ID), `The team "Backend" was deleted`)
	// The removed user is no longer a member and is not told about the
	// deletion.
	require.NotContains(t, env.notificationTexts(t, other.ID), `The team "Backend" was deleted`)
}

func TestTeamHandler_ListUserTeamsDerivedViews(t *testing.T) {
	env := setupTeamTestEnv(t)

	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	mine, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Mine",
		CreatorID: alice.ID,
	})
	require.NoError(t, err)

	theirs, err := env.teamService.CreateTeam(services.CreateTeamInput{
		Name:      "Theirs",
		CreatorID: bob.ID,
		Members:   []services.TeamMemberInput{{UserID: alice.ID, Role: models.RoleEngineer}},
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/teams/user", func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, alice.ID)
		env.handler.ListUserTeams(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/teams/user", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var views dto.TeamViewsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))

	require.Len(t, views.All, 2)
	require.Len(t, views.Created, 1)
	require.Len(t, views.Joined, 1)
	require.Equal(t, mine.ID, views.Created[0].ID)
	require.Equal(t, theirs.ID, views.Joined[0].ID)
	require.Equal(t, models.RoleAdmin, views.Created[0].Role)
	require.Equal(t, models.RoleEngineer, views.Joined[0].Role)
}
