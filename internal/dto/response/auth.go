package response

import (
	"time"

	"clothing-store/internal/data/entity"
)

type AuthResponse struct {
	User            UserResponse `json:"user"`
	AccessToken     string       `json:"access_token"`
	TokenType       string       `json:"token_type"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`

	// refresh token travels only in its httponly cookie
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      entity.UserRole `json:"role"`
	Address   *string         `json:"address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
	}
}
