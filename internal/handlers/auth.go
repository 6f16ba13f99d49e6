package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskify-dev/taskify-api/internal/dto"
	apierrors "github.com/taskify-dev/taskify-api/internal/errors"
	"github.com/taskify-dev/taskify-api/internal/middleware"
	"github.com/taskify-dev/taskify-api/internal/services"
	"github.com/taskify-dev/taskify-api/internal/verification"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		FullName string   `json:"full_name" binding:"required"`
		Email    string   `json:"email" binding:"required"`
		Password string   `json:"password" binding:"required"`
		Phone    string   `json:"phone"`
		Roles    []string `json:"roles"`
		Skills   []string `json:"skills"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Roles:    req.Roles,
		Skills:   req.Skills,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// Login authenticates a user and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		TOTPCode string `json:"totp_code"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, token, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
	})
	if errors.Is(err, services.ErrEmailNotVerified) {
		// Correct password but no verified email code yet. The client
		// reads this flag and starts the email verification step.
		c.JSON(http.StatusOK, gin.H{
			"requireEmailVerification": true,
		})
		return
	}
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
	})
}

// SendEmailCode issues a login verification code.
func (h *AuthHandler) SendEmailCode(c *gin.Context) {
	type SendCodeRequest struct {
		Email string `json:"email" binding:"required"`
	}

	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.SendEmailCode(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification code sent",
	})
}

// VerifyEmailCode checks a submitted verification code.
func (h *AuthHandler) VerifyEmailCode(c *gin.Context) {
	type VerifyCodeRequest struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}

	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.VerifyEmailCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// EnableTwoFactor starts TOTP provisioning for the current user.
func (h *AuthHandler) EnableTwoFactor(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	setup, err := h.authService.EnableTwoFactor(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret": setup.Secret,
		"url":    setup.URL,
	})
}

// VerifyTwoFactor confirms a pending TOTP setup.
func (h *AuthHandler) VerifyTwoFactor(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type TwoFactorRequest struct {
		Code string `json:"code" binding:"required"`
	}

	var req TwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.VerifyTwoFactor(userID, req.Code); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Two-factor authentication enabled",
	})
}

// DisableTwoFactor turns off TOTP for the current user.
func (h *AuthHandler) DisableTwoFactor(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type TwoFactorRequest struct {
		Code string `json:"code" binding:"required"`
	}

	var req TwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.DisableTwoFactor(userID, req.Code); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Two-factor authentication disabled",
	})
}

func respondAuthError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "")
	case errors.Is(err, services.ErrTwoFactorRequired):
		apierrors.Unauthorized(c, "Two-factor code required")
	case errors.Is(err, services.ErrTwoFactorInvalid):
		apierrors.InvalidCredentials(c, "Invalid two-factor code")
	case errors.Is(err, services.ErrTwoFactorAlreadyEnabled):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrTwoFactorNotEnabled):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, verification.ErrCodeExpired):
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeCodeExpired, "Verification code expired, request a new one"))
	case errors.Is(err, verification.ErrCodeMismatch):
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeCodeMismatch, "Verification code does not match"))
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
