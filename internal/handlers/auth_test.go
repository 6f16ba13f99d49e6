package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/database"
	"github.com/taskify-dev/taskify-api/internal/dto"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/notify"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/services"
	"github.com/taskify-dev/taskify-api/internal/verification"
)

type authTestEnv struct {
	db          *gorm.DB
	redis       *miniredis.Miniredis
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	require.NoError(t, err)

	database.SetDB(db)

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	codeStore := verification.NewCodeStore(rdb, 10*time.Minute)
	mailer := notify.NewSMTPMailer("localhost", 587, "", "", "noreply@example.com", true)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, codeStore, mailer, "test-secret")
	handler := NewAuthHandler(authService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		rdb.Close()
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		redis:       s,
		handler:     handler,
		authService: authService,
	}
}

func postJSON(t *testing.T, handler func(*gin.Context), url string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := gin.New()
	r.POST(url, handler)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := postJSON(t, env.handler.Signup, "/api/auth/signup", map[string]any{
		"full_name": "Alice Doe",
		"email":     "alice@example.com",
		"password":  "supersecret",
		"skills":    []string{"go", "sql"},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Message string      `json:"message"`
		User    dto.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "alice@example.com", response.User.Email)
	require.Equal(t, []string{"go", "sql"}, response.User.Skills)
}

func TestAuthHandler_SignupDuplicateEmail(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		FullName: "Alice Doe",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := postJSON(t, env.handler.Signup, "/api/auth/signup", map[string]any{
		"full_name": "Second Alice",
		"email":     "alice@example.com",
		"password":  "supersecret",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "CONFLICT")
}

func TestAuthHandler_LoginRequiresEmailVerification(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		FullName: "Alice Doe",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := postJSON(t, env.handler.Login, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "supersecret",
	})

	// Correct password without a verified email is not an error; the
	// response tells the client to run the email verification step.
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		RequireEmailVerification bool `json:"requireEmailVerification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.True(t, response.RequireEmailVerification)
}

func TestAuthHandler_FullLoginFlow(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		FullName: "Alice Doe",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := postJSON(t, env.handler.SendEmailCode, "/api/auth/2fa/send-email-code", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	code, err := env.redis.Get(verification.CodeKey("alice@example.com"))
	require.NoError(t, err)

	// A wrong code is rejected without consuming the pending one.
	w = postJSON(t, env.handler.VerifyEmailCode, "/api/auth/2fa/verify-email-code", map[string]any{
		"email": "alice@example.com",
		"code":  "000000",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "CODE_MISMATCH")

	w = postJSON(t, env.handler.VerifyEmailCode, "/api/auth/2fa/verify-email-code", map[string]any{
		"email": "alice@example.com",
		"code":  code,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, env.handler.Login, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Login successful", response.Message)
	require.NotEmpty(t, response.Token)

	// The verification marker is single-use, so the next login asks for
	// a fresh email verification instead of returning a token.
	w = postJSON(t, env.handler.Login, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"requireEmailVerification":true`)
	require.NotContains(t, w.Body.String(), "token")
}

func TestAuthHandler_LoginWithTwoFactor(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Signup(services.SignupInput{
		FullName: "Alice Doe",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	setup, err := env.authService.EnableTwoFactor(user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, env.authService.VerifyTwoFactor(user.ID, code))

	require.NoError(t, env.authService.VerifyEmailCode(context.Background(), "alice@example.com", mustIssueCode(t, env, "alice@example.com")))

	// Password alone is no longer enough.
	w := postJSON(t, env.handler.Login, "/api/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	totpCode, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	w = postJSON(t, env.handler.Login, "/api/auth/login", map[string]any{
		"email":     "alice@example.com",
		"password":  "supersecret",
		"totp_code": totpCode,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func mustIssueCode(t *testing.T, env authTestEnv, email string) string {
	t.Helper()
	require.NoError(t, env.authService.SendEmailCode(context.Background(), email))
	code, err := env.redis.Get(verification.CodeKey(email))
	require.NoError(t, err)
	return code
}
