package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskify-dev/taskify-api/internal/constants"
	"github.com/taskify-dev/taskify-api/internal/models"
	"github.com/taskify-dev/taskify-api/internal/repository"
)

// UserService provides business logic for user management.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers returns users with pagination.
func (s *UserService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUserInput represents updatable profile fields.
type UpdateUserInput struct {
	FullName *string
	Phone    *string
	Picture  *string
	Password *string
	Roles    []string
	Skills   []string
}

// UpdateUser applies a partial update to a user profile.
func (s *UserService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			fields["full_name"] = "full name cannot be empty"
		} else {
			user.FullName = name
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Picture != nil {
		user.Picture = *input.Picture
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			fields["password"] = fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength)
		} else {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, ErrFailedToHashPassword
			}
			user.PasswordHash = string(hashed)
		}
	}
	if input.Roles != nil {
		for _, role := range input.Roles {
			if !models.ValidUserRole(models.UserRole(role)) {
				fields["roles"] = "unknown role: " + role
				break
			}
		}
		if _, bad := fields["roles"]; !bad {
			user.Roles = input.Roles
		}
	}
	if input.Skills != nil {
		if len(input.Skills) > constants.MaxSkills {
			fields["skills"] = fmt.Sprintf("at most %d skills are allowed", constants.MaxSkills)
		} else {
			user.Skills = input.Skills
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdateRoles replaces a user's role set. Every role must come from the
// fixed enum.
func (s *UserService) UpdateRoles(id uint64, roles []string) (*models.User, error) {
	return s.UpdateUser(id, UpdateUserInput{Roles: roles})
}

// DeleteUser soft deletes a user account.
func (s *UserService) DeleteUser(id uint64) error {
	if _, err := s.GetUser(id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
