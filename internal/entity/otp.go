package entity

import (
	"time"

	"github.com/google/uuid"
)

// OTP is a single-use second-factor code. Rows are never deleted; consumed
// and superseded codes keep their UsedAt timestamp as an audit trail.
type OTP struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Code string `gorm:"type:char(6);not null"`

	ExpiresAt time.Time
	UsedAt    *time.Time

	CreatedAt time.Time
}
