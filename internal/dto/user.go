package dto

import (
	"github.com/taskify-dev/taskify-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID               uint64   `json:"id"`
	FullName         string   `json:"full_name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Picture          string   `json:"picture,omitempty"`
	Skills           []string `json:"skills"`
	Roles            []string `json:"roles"`
	TwoFactorEnabled bool     `json:"two_factor_enabled"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:               user.ID,
		FullName:         user.FullName,
		Email:            user.Email,
		Phone:            user.Phone,
		Picture:          user.Picture,
		Skills:           user.Skills,
		Roles:            user.Roles,
		TwoFactorEnabled: user.TwoFactorEnabled,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}
