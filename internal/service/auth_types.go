package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	OTPExpiry time.Duration
}

// OTPMailer delivers a one-time code out of band. Delivery failure never
// invalidates the code: "issued" and "delivered" are independent steps.
type OTPMailer interface {
	SendOTPEmail(ctx context.Context, email string, code string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(email string, provider string) (string, time.Duration, error)
}

// GoogleIdentity is the verified claim set extracted from a Google ID token.
type GoogleIdentity struct {
	SubjectID string
	Email     string
}

// GoogleVerifier validates a Google ID token assertion against this
// deployment's client id and returns the stable subject id and email.
type GoogleVerifier interface {
	Verify(ctx context.Context, credential string) (*GoogleIdentity, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
