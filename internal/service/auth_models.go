package service

import "sandhai/internal/entity"

type SignupInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
}

type LoginResult struct {
	Message     string
	Email       string
	RequiresOTP bool
}

type TokenResult struct {
	AccessToken string
	TokenType   string
	User        *entity.User
}
