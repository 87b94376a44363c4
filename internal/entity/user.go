package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email string    `gorm:"type:varchar(255);uniqueIndex;not null"`

	// Nullable for Google-only accounts.
	PasswordHash *string `gorm:"type:text"`

	GoogleID     *string      `gorm:"type:varchar(255);uniqueIndex"`
	AuthProvider AuthProvider `gorm:"type:varchar(50);default:'email';not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	OTPs     []OTP
	Products []Product `gorm:"foreignKey:CreatedBy"`
}
