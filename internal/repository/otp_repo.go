package repository

import (
	"context"
	"time"

	"sandhai/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPRepository interface {
	// InvalidateAndCreate marks every unused code for the owning user as
	// used and inserts the new one, in a single transaction. Immediately
	// afterwards exactly one unused row exists for that user.
	InvalidateAndCreate(ctx context.Context, otp *entity.OTP) error

	// Consume atomically marks the matching unused, unexpired code as used.
	// It reports false, with no side effect, when no such code exists.
	Consume(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) InvalidateAndCreate(ctx context.Context, otp *entity.OTP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&entity.OTP{}).
			Where("user_id = ? AND used_at IS NULL", otp.UserID).
			Update("used_at", &now).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

func (r *otpRepository) Consume(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	// Single UPDATE so the validity check and the mark-as-used are one
	// atomic step; two concurrent verifiers cannot both spend a code.
	result := r.db.WithContext(ctx).
		Model(&entity.OTP{}).
		Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?", userID, code, now).
		Update("used_at", &now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
