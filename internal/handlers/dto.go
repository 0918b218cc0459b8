package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// UserDTO is the account as returned to its owner. The email is the
// decrypted address, and created_at is an RFC 3339 string.
type UserDTO struct {
	ID        uuid.UUID    `json:"id"`
	Email     string       `json:"email"`
	Username  string       `json:"username"`
	Theme     models.Theme `json:"theme"`
	IsAdmin   bool         `json:"is_admin"`
	CreatedAt string       `json:"created_at"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Theme:     u.Theme,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type authResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}
