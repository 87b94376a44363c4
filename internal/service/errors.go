package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPassword    = errors.New("password must be between 6 and 72 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrGoogleOnlyAccount  = errors.New("this account uses Google Sign-In, please login with Google")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrInvalidGoogleToken = errors.New("invalid Google token")
	ErrMissingEmail       = errors.New("could not get email from Google account")
	ErrProductNotFound    = errors.New("product not found")
	ErrNotProductOwner    = errors.New("not authorized to modify this product")
)
