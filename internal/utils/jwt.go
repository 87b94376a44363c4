package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// JWTManager issues and parses the access tokens returned by OTP
// verification and Google sign-in. The secret is process-wide
// configuration: rotating it invalidates every outstanding token.
type JWTManager struct {
	Secret         []byte
	Issuer         string
	Method         jwt.SigningMethod
	AccessTokenTTL time.Duration
}

// AccessClaims carries the token payload. The user's email is the
// subject; a separate field would shadow the registered "sub" claim and
// break parsing.
type AccessClaims struct {
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) Email() string {
	return c.Subject
}

func (m JWTManager) IssueAccessToken(email string, provider string) (string, time.Duration, error) {
	ttl := m.AccessTokenTTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	method := m.Method
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	now := time.Now()
	claims := AccessClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SigningMethodFromName maps the configured algorithm name to a JWT HMAC
// signing method, defaulting to HS256 for unknown values.
func SigningMethodFromName(name string) jwt.SigningMethod {
	switch name {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
