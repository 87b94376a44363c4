package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthAction string

const (
	SignupCompleted   AuthAction = "signup"
	LoginFailed       AuthAction = "login_failed"
	OTPSent           AuthAction = "otp_sent"
	OTPDeliveryFailed AuthAction = "otp_delivery_failed"
	OTPResent         AuthAction = "otp_resent"
	OTPVerified       AuthAction = "otp_verified"
	GoogleLogin       AuthAction = "google_login"
)

// AuthEvent is an append-only audit record of authentication activity.
type AuthEvent struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID `gorm:"type:uuid;index"`

	IPAddress *string    `gorm:"type:varchar(45)"`
	Action    AuthAction `gorm:"type:varchar(50);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
