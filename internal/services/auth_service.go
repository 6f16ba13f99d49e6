package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/middleware"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/notify"
	"github.com/taskify-dev/taskify-api/internal/repository"
	"github.com/taskify-dev/taskify-api/internal/verification"
)

var (
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrUserNotFound            = errors.New("user not found")
	ErrEmailNotVerified        = errors.New("email verification required before login")
	ErrTwoFactorRequired       = errors.New("two-factor code required")
	ErrTwoFactorInvalid        = errors.New("invalid two-factor code")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrFailedToHashPassword    = errors.New("failed to hash password")
)

const totpIssuer = "Taskify"

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	codes    *verification.CodeStore
	mailer   notify.Mailer
	secret   string
	tokenTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, codes *verification.CodeStore, mailer notify.Mailer, secret string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codes:    codes,
		mailer:   mailer,
		secret:   secret,
		tokenTTL: constants.TokenTTL,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Roles    []string
	Skills   []string
}

// Signup creates a new user account.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	fields := map[string]string{}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fields["full_name"] = "full name is required"
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "email is not valid"
	}

	if len(input.Password) < constants.MinPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength)
	}

	if len(input.Skills) > constants.MaxSkills {
		fields["skills"] = fmt.Sprintf("at most %d skills are allowed", constants.MaxSkills)
	}

	for _, role := range input.Roles {
		if !models.ValidUserRole(models.UserRole(role)) {
			fields["roles"] = "unknown role: " + role
			break
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Phone:        strings.TrimSpace(input.Phone),
		Roles:        input.Roles,
		Skills:       input.Skills,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// SendEmailCode issues a verification code and mails it to the user.
func (s *AuthService) SendEmailCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.userRepo.FindByEmail(email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	code, err := s.codes.IssueCode(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	// Delivery problems must not block the flow; the user can request
	// a new code at any time.
	go func() {
		if err := s.mailer.SendVerificationCode(email, code); err != nil {
			slog.Error("failed to send verification code", "email", email, "error", err)
		}
	}()

	return nil
}

// VerifyEmailCode checks a submitted code and marks the email verified.
func (s *AuthService) VerifyEmailCode(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.codes.VerifyCode(ctx, email, code)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
	TOTPCode string
}

// Login verifies credentials and returns a signed token for the user.
// The email must have completed code verification first, and accounts
// with two-factor enabled must also present a valid TOTP code.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	verified, err := s.codes.IsVerified(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check verification state: %w", err)
	}
	if !verified {
		return nil, "", ErrEmailNotVerified
	}

	if user.TwoFactorEnabled {
		if input.TOTPCode == "" {
			return nil, "", ErrTwoFactorRequired
		}
		if !totp.Validate(input.TOTPCode, user.TwoFactorSecret) {
			return nil, "", ErrTwoFactorInvalid
		}
	}

	if err := s.codes.ClearVerified(ctx, email); err != nil {
		slog.Warn("failed to clear verification marker", "email", email, "error", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken signs a JWT for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Roles: user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// TwoFactorSetup holds the provisioning data for an authenticator app.
type TwoFactorSetup struct {
	Secret string
	URL    string
}

// EnableTwoFactor generates a TOTP secret for the user. The secret stays
// inactive until confirmed with VerifyTwoFactor.
func (s *AuthService) EnableTwoFactor(userID uint64) (*TwoFactorSetup, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	user.TwoFactorSecret = key.Secret()
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return &TwoFactorSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// VerifyTwoFactor confirms a pending TOTP setup and activates it.
func (s *AuthService) VerifyTwoFactor(userID uint64, code string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, user.TwoFactorSecret) {
		return ErrTwoFactorInvalid
	}

	user.TwoFactorEnabled = true
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	return nil
}

// DisableTwoFactor turns off two-factor authentication after checking a
// valid current code.
func (s *AuthService) DisableTwoFactor(userID uint64, code string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, user.TwoFactorSecret) {
		return ErrTwoFactorInvalid
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}
	return nil
}

// FindOrCreateOAuthUser resolves the local account for an OAuth profile,
// creating one on first login.
func (s *AuthService) FindOrCreateOAuthUser(email, name, picture string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &ValidationError{Fields: map[string]string{"email": "provider did not return an email"}}
	}

	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &models.User{
		FullName: name,
		Email:    email,
		Picture:  picture,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
