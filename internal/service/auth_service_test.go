package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sandhai/internal/entity"
	"sandhai/internal/repository"
	"sandhai/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUserRepo struct {
	mutex sync.Mutex
	users []*entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if user.GoogleID != nil && existing.GoogleID != nil && *existing.GoogleID == *user.GoogleID {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByGoogleIDOrEmail(ctx context.Context, googleID string, email string) (*entity.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, user := range f.users {
		if user.GoogleID != nil && *user.GoogleID == googleID {
			return user, nil
		}
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) LinkGoogleID(ctx context.Context, user *entity.User, googleID string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	user.GoogleID = &googleID
	user.AuthProvider = entity.AuthProviderGoogle
	return nil
}

type fakeOTPRepo struct {
	mutex sync.Mutex
	otps  []*entity.OTP
}

func (f *fakeOTPRepo) InvalidateAndCreate(ctx context.Context, otp *entity.OTP) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	now := time.Now()
	for _, existing := range f.otps {
		if existing.UserID == otp.UserID && existing.UsedAt == nil {
			existing.UsedAt = &now
		}
	}
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	f.otps = append(f.otps, otp)
	return nil
}

func (f *fakeOTPRepo) Consume(ctx context.Context, userID uuid.UUID, code string, now time.Time) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, otp := range f.otps {
		if otp.UserID == userID && otp.Code == code && otp.UsedAt == nil && otp.ExpiresAt.After(now) {
			otp.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPRepo) unusedFor(userID uuid.UUID) []*entity.OTP {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var unused []*entity.OTP
	for _, otp := range f.otps {
		if otp.UserID == userID && otp.UsedAt == nil {
			unused = append(unused, otp)
		}
	}
	return unused
}

type fakeMailer struct {
	mutex sync.Mutex
	sent  []string // codes, in order
	fail  bool
}

func (f *fakeMailer) SendOTPEmail(ctx context.Context, email string, code string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, code)
	return nil
}

func (f *fakeMailer) lastCode() string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.now = f.now.Add(d)
}

type authFixture struct {
	service  *AuthService
	users    *fakeUserRepo
	otps     *fakeOTPRepo
	mailer   *fakeMailer
	verifier *fakeVerifier
	clock    *fakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	fixture := &authFixture{
		users:    &fakeUserRepo{},
		otps:     &fakeOTPRepo{},
		mailer:   &fakeMailer{},
		verifier: &fakeVerifier{},
		clock:    &fakeClock{now: time.Now()},
	}
	fixture.service = NewAuthService(
		fixture.users,
		fixture.otps,
		nil,
		fixture.mailer,
		BcryptPasswordHasher{Cost: 4},
		JWTAccessIssuer{Manager: newTestJWTManager()},
		fixture.verifier,
		fixture.clock,
		nil,
		AuthConfig{OTPExpiry: 5 * time.Minute},
	)
	return fixture
}

func newTestJWTManager() *utils.JWTManager {
	return &utils.JWTManager{
		Secret:         []byte("test-secret"),
		Issuer:         "sandhai-test",
		AccessTokenTTL: time.Hour,
	}
}

// --- signup ---

func TestSignup_CreatesEmailAccount(t *testing.T) {
	fixture := newAuthFixture(t)

	user, err := fixture.service.Signup(context.Background(), SignupInput{Email: "A@X.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, entity.AuthProviderEmail, user.AuthProvider)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "secret1", *user.PasswordHash)
	assert.Nil(t, user.GoogleID)
}

func TestSignup_DuplicateEmailFails(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "different-password"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_PasswordLengthBounds(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", strings.Repeat("a", 5), ErrInvalidPassword},
		{"minimum", strings.Repeat("a", 6), nil},
		{"maximum", strings.Repeat("a", 72), nil},
		{"too long", strings.Repeat("a", 73), ErrInvalidPassword},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newAuthFixture(t)
			email := "user" + string(rune('a'+i)) + "@x.com"
			_, err := fixture.service.Signup(context.Background(), SignupInput{Email: email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- login ---

func TestLogin_UnknownUser(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.Login(context.Background(), LoginInput{Email: "ghost@x.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, fixture.mailer.sent)
}

func TestLogin_WrongPasswordNeverIssuesOTP(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	user, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, fixture.otps.unusedFor(user.ID))
	assert.Empty(t, fixture.mailer.sent)
}

func TestLogin_GoogleOnlyAccountRejected(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	googleID := "google-sub-1"
	require.NoError(t, fixture.users.Create(ctx, &entity.User{
		Email:        "g@x.com",
		GoogleID:     &googleID,
		AuthProvider: entity.AuthProviderGoogle,
	}))

	_, err := fixture.service.Login(ctx, LoginInput{Email: "g@x.com", Password: "anything"})
	assert.ErrorIs(t, err, ErrGoogleOnlyAccount)
}

func TestLogin_IssuesExactlyOneUnusedOTP(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	user, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	result, err := fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, result.RequiresOTP)
	assert.Equal(t, "a@x.com", result.Email)

	unused := fixture.otps.unusedFor(user.ID)
	require.Len(t, unused, 1)
	assert.Len(t, unused[0].Code, 6)
	assert.Equal(t, unused[0].Code, fixture.mailer.lastCode())

	// A second login supersedes the first code but still leaves exactly one.
	_, err = fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Len(t, fixture.otps.unusedFor(user.ID), 1)
}

func TestLogin_DeliveryFailureIsSoft(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	user, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	fixture.mailer.fail = true
	result, err := fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, result.RequiresOTP)

	// The code exists and is verifiable even though the email never went out.
	unused := fixture.otps.unusedFor(user.ID)
	require.Len(t, unused, 1)
	token, err := fixture.service.VerifyOTP(ctx, "a@x.com", unused[0].Code)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
}

// --- otp verification ---

func TestVerifyOTP_FullScenario(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	code := fixture.mailer.lastCode()
	require.Len(t, code, 6)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = fixture.service.VerifyOTP(ctx, "a@x.com", wrong)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	result, err := fixture.service.VerifyOTP(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, "a@x.com", result.User.Email)

	// Single use: the same code never verifies twice.
	_, err = fixture.service.VerifyOTP(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_UnknownEmail(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.VerifyOTP(context.Background(), "ghost@x.com", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	code := fixture.mailer.lastCode()

	fixture.clock.Advance(5*time.Minute + time.Second)

	_, err = fixture.service.VerifyOTP(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

// --- resend ---

func TestResendOTP_InvalidatesPriorCode(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Signup(ctx, SignupInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = fixture.service.Login(ctx, LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	first := fixture.mailer.lastCode()

	result, err := fixture.service.ResendOTP(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, result.RequiresOTP)
	second := fixture.mailer.lastCode()

	if first != second {
		_, err = fixture.service.VerifyOTP(ctx, "a@x.com", first)
		assert.ErrorIs(t, err, ErrInvalidOTP, "superseded code must not verify")
	}
	_, err = fixture.service.VerifyOTP(ctx, "a@x.com", second)
	assert.NoError(t, err)
}

func TestResendOTP_UnknownEmail(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.ResendOTP(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// --- google sign-in ---

func TestLoginWithGoogle_CreatesUserAndIsIdempotent(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()
	fixture.verifier.identity = &GoogleIdentity{SubjectID: "sub-1", Email: "b@x.com"}

	first, err := fixture.service.LoginWithGoogle(ctx, "credential", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.Equal(t, entity.AuthProviderGoogle, first.User.AuthProvider)
	assert.Nil(t, first.User.PasswordHash)

	second, err := fixture.service.LoginWithGoogle(ctx, "credential", nil)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "same identity must map to the same user")
	assert.Len(t, fixture.users.users, 1)

	// No OTP is ever issued on this path.
	assert.Empty(t, fixture.otps.otps)
}

func TestLoginWithGoogle_LinksExistingPasswordAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	ctx := context.Background()

	existing, err := fixture.service.Signup(ctx, SignupInput{Email: "b@x.com", Password: "secret1"})
	require.NoError(t, err)

	fixture.verifier.identity = &GoogleIdentity{SubjectID: "sub-2", Email: "b@x.com"}
	result, err := fixture.service.LoginWithGoogle(ctx, "credential", nil)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.User.ID, "account must be linked, not duplicated")
	require.NotNil(t, result.User.GoogleID)
	assert.Equal(t, "sub-2", *result.User.GoogleID)
	assert.Equal(t, entity.AuthProviderGoogle, result.User.AuthProvider)
	assert.Len(t, fixture.users.users, 1)
}

func TestLoginWithGoogle_VerifierFailurePropagates(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.verifier.err = ErrInvalidGoogleToken

	_, err := fixture.service.LoginWithGoogle(context.Background(), "bad", nil)
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)

	fixture.verifier.err = ErrMissingEmail
	_, err = fixture.service.LoginWithGoogle(context.Background(), "no-email", nil)
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestLoginWithGoogle_ConcurrentFirstLoginsCreateOneUser(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.verifier.identity = &GoogleIdentity{SubjectID: "sub-3", Email: "c@x.com"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fixture.service.LoginWithGoogle(context.Background(), "credential", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, fixture.users.users, 1)
}
