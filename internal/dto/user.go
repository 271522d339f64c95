package dto

import "github.com/todo-grow/backend/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           uint64 `json:"id"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profile_image"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Nickname:     user.Nickname,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
	}
}
