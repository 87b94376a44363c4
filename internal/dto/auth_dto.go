package dto

import (
	"time"

	"sandhai/internal/entity"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type SignupResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// LoginRequest binds the OAuth2-style form fields the reference client
// submits: the email travels as "username".
type LoginRequest struct {
	Email    string `form:"username" json:"username" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	Email       string `json:"email"`
	RequiresOTP bool   `json:"requires_otp"`
}

type OTPVerifyRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otp_code" validate:"required,len=6"`
}

type OTPResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type GoogleAuthRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	AuthProvider string    `json:"auth_provider"`
	CreatedAt    time.Time `json:"created_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		AuthProvider: string(user.AuthProvider),
		CreatedAt:    user.CreatedAt,
	}
}
