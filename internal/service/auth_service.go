package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"sandhai/internal/entity"
	"sandhai/internal/repository"
	"sandhai/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	passwordMinLength = 6
	passwordMaxLength = 72
)

// dummyPasswordHash keeps the unknown-user path doing the same bcrypt work
// as the known-user path.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

// AuthService sequences signup, password login, OTP verification and
// Google sign-in over the credential store and OTP ledger.
type AuthService struct {
	users      repository.UserRepository
	otps       repository.OTPRepository
	authEvents repository.AuthEventRepository

	mailer         OTPMailer
	passwordHash   PasswordHasher
	accessTokens   AccessTokenIssuer
	googleVerifier GoogleVerifier
	clock          Clock
	log            *logrus.Logger
	config         AuthConfig

	googleLocks *keyLock
}

func NewAuthService(
	users repository.UserRepository,
	otps repository.OTPRepository,
	authEvents repository.AuthEventRepository,
	mailer OTPMailer,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	googleVerifier GoogleVerifier,
	clock Clock,
	log *logrus.Logger,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:          users,
		otps:           otps,
		authEvents:     authEvents,
		mailer:         mailer,
		passwordHash:   passwordHash,
		accessTokens:   accessTokens,
		googleVerifier: googleVerifier,
		clock:          clock,
		log:            log,
		config:         config,
		googleLocks:    newKeyLock(10 * time.Minute),
	}
}

// Signup creates an email/password account. It never grants access by
// itself: the caller must still complete login and OTP verification.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	if len(input.Password) < passwordMinLength || len(input.Password) > passwordMaxLength {
		return nil, ErrInvalidPassword
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: &hash,
		AuthProvider: entity.AuthProviderEmail,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	_ = s.logEvent(ctx, &user.ID, nil, entity.SignupCompleted, nil)
	return user, nil
}

// Login is step 1 of 2: verify the password, then issue and deliver a
// fresh OTP. No token is returned until the code is verified.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		_ = s.logEvent(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if user.AuthProvider == entity.AuthProviderGoogle && user.PasswordHash == nil {
		return nil, ErrGoogleOnlyAccount
	}
	if user.PasswordHash == nil || !s.passwordHash.Verify(*user.PasswordHash, input.Password) {
		_ = s.logEvent(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if err := s.issueAndDeliverOTP(ctx, user, entity.OTPSent); err != nil {
		return nil, err
	}

	return &LoginResult{
		Message:     "Verification code sent to your email",
		Email:       user.Email,
		RequiresOTP: true,
	}, nil
}

// VerifyOTP is step 2 of 2: consume the code and mint the access token.
func (s *AuthService) VerifyOTP(ctx context.Context, email string, code string) (*TokenResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || code == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, err := s.otps.Consume(ctx, user.ID, code, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	_ = s.logEvent(ctx, &user.ID, nil, entity.OTPVerified, nil)
	return s.buildTokenResult(user)
}

// ResendOTP issues a fresh code, invalidating every prior unused one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.issueAndDeliverOTP(ctx, user, entity.OTPResent); err != nil {
		return nil, err
	}

	return &LoginResult{
		Message:     "Verification code resent to your email",
		Email:       user.Email,
		RequiresOTP: true,
	}, nil
}

// LoginWithGoogle verifies the ID token and finds, links or creates the
// matching account. The Google provider stands in for the second factor,
// so a token is issued immediately.
func (s *AuthService) LoginWithGoogle(ctx context.Context, credential string, ipAddress *string) (*TokenResult, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrInvalidInput
	}

	identity, err := s.googleVerifier.Verify(ctx, credential)
	if err != nil {
		return nil, err
	}

	// Serialize find-or-create per identity so two concurrent first
	// logins cannot both miss the lookup and insert twice.
	unlock := s.googleLocks.Lock(identity.SubjectID + "|" + identity.Email)
	defer unlock()

	user, err := s.users.FindByGoogleIDOrEmail(ctx, identity.SubjectID, identity.Email)
	if err != nil {
		return nil, err
	}

	switch {
	case user == nil:
		user = &entity.User{
			Email:        identity.Email,
			GoogleID:     &identity.SubjectID,
			AuthProvider: entity.AuthProviderGoogle,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	case user.GoogleID == nil:
		// Password account with the same email: link in place.
		if err := s.users.LinkGoogleID(ctx, user, identity.SubjectID); err != nil {
			return nil, err
		}
	}

	_ = s.logEvent(ctx, &user.ID, ipAddress, entity.GoogleLogin, nil)
	return s.buildTokenResult(user)
}

func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
}

func (s *AuthService) issueAndDeliverOTP(ctx context.Context, user *entity.User, action entity.AuthAction) error {
	code, err := utils.GenerateOTPCode()
	if err != nil {
		return err
	}

	otp := &entity.OTP{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(s.otpExpiry()),
	}
	if err := s.otps.InvalidateAndCreate(ctx, otp); err != nil {
		return err
	}

	// Delivery is decoupled from issuance: the code stays valid and can
	// be resent even when the email never goes out.
	if err := s.mailer.SendOTPEmail(ctx, user.Email, code); err != nil {
		s.logger().WithError(err).WithField("email", user.Email).Warn("otp delivery failed")
		_ = s.logEvent(ctx, &user.ID, nil, entity.OTPDeliveryFailed, nil)
		return nil
	}

	_ = s.logEvent(ctx, &user.ID, nil, action, nil)
	return nil
}

func (s *AuthService) buildTokenResult(user *entity.User) (*TokenResult, error) {
	token, _, err := s.accessTokens.IssueAccessToken(user.Email, string(user.AuthProvider))
	if err != nil {
		return nil, err
	}
	return &TokenResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

func (s *AuthService) logEvent(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.AuthAction,
	metadata map[string]any,
) error {
	if s.authEvents == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	event := &entity.AuthEvent{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return s.authEvents.Log(ctx, event)
}

func (s *AuthService) logger() *logrus.Logger {
	if s.log == nil {
		return logrus.StandardLogger()
	}
	return s.log
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) otpExpiry() time.Duration {
	if s.config.OTPExpiry > 0 {
		return s.config.OTPExpiry
	}
	return 5 * time.Minute
}
