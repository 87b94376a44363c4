package repository

import (
	"context"
	"errors"
	"strings"

	"sandhai/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateEmail is returned by Create when the email unique index
// rejects the insert.
var ErrDuplicateEmail = errors.New("email already exists")

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByGoogleIDOrEmail(ctx context.Context, googleID string, email string) (*entity.User, error)
	LinkGoogleID(ctx context.Context, user *entity.User, googleID string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByGoogleIDOrEmail(ctx context.Context, googleID string, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("google_id = ? OR email = ?", googleID, email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkGoogleID attaches a federated identity to an existing account and
// flips its provider to google. The entity is updated in place.
func (r *userRepository) LinkGoogleID(ctx context.Context, user *entity.User, googleID string) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Updates(map[string]any{
			"google_id":     googleID,
			"auth_provider": entity.AuthProviderGoogle,
		}).Error
	if err != nil {
		return err
	}
	user.GoogleID = &googleID
	user.AuthProvider = entity.AuthProviderGoogle
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique index violations.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
