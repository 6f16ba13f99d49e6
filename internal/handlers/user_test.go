package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/dto"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/services"
)

type userTestEnv struct {
	db      *gorm.DB
	handler *UserHandler
}

func setupUserTestEnv(t *testing.T) userTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	require.NoError(t, err)

	database.SetDB(db)

	userService := services.NewUserService(repository.NewUserRepository(db))
	handler := NewUserHandler(userService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return userTestEnv{db: db, handler: handler}
}

func (env userTestEnv) putRoles(t *testing.T, userID uint64, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := gin.New()
	r.PUT("/api/users/:id/roles", env.handler.UpdateUserRoles)

	req := httptest.NewRequest(http.MethodPut,
		"/api/users/"+strconv.FormatUint(userID, 10)+"/roles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_UpdateRoles(t *testing.T) {
	env := setupUserTestEnv(t)

	user := &models.User{FullName: "Alice Doe", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, env.db.Create(user).Error)

	w := env.putRoles(t, user.ID, map[string]any{
		"roles": []string{"MANAGER", "ENGINEER"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, []string{"MANAGER", "ENGINEER"}, response.Roles)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, []string{"MANAGER", "ENGINEER"}, []string(stored.Roles))
}

func TestUserHandler_UpdateRolesRejectsUnknownRole(t *testing.T) {
	env := setupUserTestEnv(t)

	user := &models.User{FullName: "Alice Doe", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, env.db.Create(user).Error)

	w := env.putRoles(t, user.ID, map[string]any{
		"roles": []string{"OVERLORD"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "VALIDATION")

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Empty(t, []string(stored.Roles))
}
