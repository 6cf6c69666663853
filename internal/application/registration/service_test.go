package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/infrastructure/postgres"
	"github.com/yearbook-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	args := m.Called(ctx, email)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}
func (m *mockUserStore) CreateAccount(ctx context.Context, acct postgres.NewAccount) (*domain.User, error) {
	args := m.Called(ctx, acct)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOTPStore struct{ mock.Mock }

func (m *mockOTPStore) Get(ctx context.Context, email string) (*domain.OTPVerification, error) {
	args := m.Called(ctx, email)
	if v, _ := args.Get(0).(*domain.OTPVerification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPStore) Upsert(ctx context.Context, email, otpHash string, expiresAt, now time.Time) error {
	return m.Called(ctx, email, otpHash, expiresAt, now).Error(0)
}
func (m *mockOTPStore) IncrementAttempts(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockTokenProvider struct{ mock.Mock }

func (m *mockTokenProvider) Sign(userID, email, role string) (string, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) SignRegistration(email string) (string, error) {
	args := m.Called(email)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) VerifyRegistration(tokenStr string) (string, error) {
	args := m.Called(tokenStr)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(us *mockUserStore, os *mockOTPStore, ml *mockMailer, tp *mockTokenProvider) Service {
	return NewService(ServiceDeps{
		UserRepo:      us,
		OTPRepo:       os,
		Mailer:        ml,
		TokenProvider: tp,
		AllowedDomain: "iut-dhaka.edu",
		OTPTTL:        10 * time.Minute,
		MaxAttempts:   5,
	})
}

func hashedOTP(t *testing.T, code string) string {
	t.Helper()
	h, err := otp.Hash(code)
	require.NoError(t, err)
	return h
}

// --- RequestOTP ---

func TestRequestOTP_RejectsForeignDomain(t *testing.T) {
	svc := newService(nil, nil, nil, nil)
	err := svc.RequestOTP(context.Background(), domain.RequestOTPRequest{Email: "jane@gmail.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRequestOTP_RejectsRegisteredEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.User{UserID: "U1"}, nil)

	svc := newService(us, nil, nil, nil)
	err := svc.RequestOTP(context.Background(), domain.RequestOTPRequest{Email: "jane@iut-dhaka.edu"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRequestOTP_UpsertsAndMails(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(nil, domain.ErrNotFound)

	os := &mockOTPStore{}
	os.On("Upsert", mock.Anything, "jane@iut-dhaka.edu", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ml := &mockMailer{}
	ml.On("SendEmail", "jane@iut-dhaka.edu", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, ml, nil)
	err := svc.RequestOTP(context.Background(), domain.RequestOTPRequest{Email: "Jane@IUT-dhaka.edu "})
	require.NoError(t, err)

	os.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestRequestOTP_MailFailureSurfacesUnavailable(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(nil, domain.ErrNotFound)

	os := &mockOTPStore{}
	os.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(us, os, ml, nil)
	err := svc.RequestOTP(context.Background(), domain.RequestOTPRequest{Email: "jane@iut-dhaka.edu"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// --- VerifyOTP ---

func TestVerifyOTP_NoChallenge(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "jane@iut-dhaka.edu").Return(nil, domain.ErrNotFound)

	svc := newService(nil, os, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "jane@iut-dhaka.edu", OTP: "123456"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyOTP_AttemptsExhausted(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.OTPVerification{
		Email:     "jane@iut-dhaka.edu",
		OTPHash:   hashedOTP(t, "123456"),
		ExpiresAt: time.Now().Add(5 * time.Minute),
		Attempts:  5,
	}, nil)

	svc := newService(nil, os, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "jane@iut-dhaka.edu", OTP: "123456"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
}

func TestVerifyOTP_Expired(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.OTPVerification{
		Email:     "jane@iut-dhaka.edu",
		OTPHash:   hashedOTP(t, "123456"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)

	svc := newService(nil, os, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "jane@iut-dhaka.edu", OTP: "123456"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestVerifyOTP_WrongCodeIncrementsAttempts(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.OTPVerification{
		Email:     "jane@iut-dhaka.edu",
		OTPHash:   hashedOTP(t, "123456"),
		ExpiresAt: time.Now().Add(5 * time.Minute),
		Attempts:  1,
	}, nil)
	os.On("IncrementAttempts", mock.Anything, "jane@iut-dhaka.edu").Return(nil)

	svc := newService(nil, os, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "jane@iut-dhaka.edu", OTP: "654321"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	os.AssertExpectations(t)
}

func TestVerifyOTP_Success(t *testing.T) {
	os := &mockOTPStore{}
	os.On("Get", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.OTPVerification{
		Email:     "jane@iut-dhaka.edu",
		OTPHash:   hashedOTP(t, "123456"),
		ExpiresAt: time.Now().Add(5 * time.Minute),
		Attempts:  2,
	}, nil)

	tp := &mockTokenProvider{}
	tp.On("SignRegistration", "jane@iut-dhaka.edu").Return("reg-token", nil)

	svc := newService(nil, os, nil, tp)
	token, err := svc.VerifyOTP(context.Background(), domain.VerifyOTPRequest{Email: "jane@iut-dhaka.edu", OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "reg-token", token)
	// The challenge row is not deleted here; account creation consumes it.
	os.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}

// --- Complete ---

func TestComplete_InvalidToken(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("VerifyRegistration", "bad").Return("", errors.New("token expired"))

	svc := newService(nil, nil, nil, tp)
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{
		RegistrationToken: "bad", Password: "password1", AccountName: "Jane Doe 220041045",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestComplete_MalformedAccountName(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("VerifyRegistration", "tok").Return("jane@iut-dhaka.edu", nil)

	svc := newService(nil, nil, nil, tp)
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{
		RegistrationToken: "tok", Password: "password1", AccountName: "just-a-name",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestComplete_UnknownDepartmentDigit(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("VerifyRegistration", "tok").Return("jane@iut-dhaka.edu", nil)

	svc := newService(nil, nil, nil, tp)
	// 5th digit '9' maps to no department.
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{
		RegistrationToken: "tok", Password: "password1", AccountName: "Jane Doe 220091045",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestComplete_CreatesAccountAndStartsSession(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("VerifyRegistration", "tok").Return("jane@iut-dhaka.edu", nil)
	tp.On("Sign", "U1", "jane@iut-dhaka.edu", domain.RoleStudent).Return("bearer", nil)

	us := &mockUserStore{}
	us.On("CreateAccount", mock.Anything, mock.MatchedBy(func(acct postgres.NewAccount) bool {
		return acct.Email == "jane@iut-dhaka.edu" &&
			acct.DisplayName == "Jane Doe" &&
			acct.Role == domain.RoleStudent &&
			acct.Student.StudentID == "220041045" &&
			acct.Student.Department == "CSE" &&
			acct.Student.GraduationYear == 2026 &&
			acct.PasswordHash != "" && acct.PasswordHash != "password1"
	})).Return(&domain.User{UserID: "U1", Email: "jane@iut-dhaka.edu", Role: domain.RoleStudent}, nil)
	us.On("GetProfileByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.Profile{
		User: domain.User{UserID: "U1", Email: "jane@iut-dhaka.edu", Role: domain.RoleStudent},
	}, nil)

	svc := newService(us, nil, nil, tp)
	sess, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{
		RegistrationToken: "tok", Password: "password1", AccountName: "Jane Doe 220041045",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", sess.Token)
	assert.Equal(t, "U1", sess.Profile.UserID)
	us.AssertExpectations(t)
}

func TestComplete_DuplicateSurfacesConflict(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("VerifyRegistration", "tok").Return("jane@iut-dhaka.edu", nil)

	us := &mockUserStore{}
	us.On("CreateAccount", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)

	svc := newService(us, nil, nil, tp)
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{
		RegistrationToken: "tok", Password: "password1", AccountName: "Jane Doe 220041045",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetProfileByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{Email: "jane@iut-dhaka.edu", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	us := &mockUserStore{}
	us.On("GetProfileByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.Profile{
		User: domain.User{UserID: "U1", Email: "jane@iut-dhaka.edu", PasswordHash: string(hash)},
	}, nil)

	svc := newService(us, nil, nil, nil)
	_, err = svc.Login(context.Background(), domain.LoginRequest{Email: "jane@iut-dhaka.edu", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	us := &mockUserStore{}
	us.On("GetProfileByEmail", mock.Anything, "jane@iut-dhaka.edu").Return(&domain.Profile{
		User: domain.User{UserID: "U1", Email: "jane@iut-dhaka.edu", Role: domain.RoleStudent, PasswordHash: string(hash)},
	}, nil)
	us.On("RecordLogin", mock.Anything, "U1", mock.Anything).Return(nil)

	tp := &mockTokenProvider{}
	tp.On("Sign", "U1", "jane@iut-dhaka.edu", domain.RoleStudent).Return("bearer", nil)

	svc := newService(us, nil, nil, tp)
	sess, err := svc.Login(context.Background(), domain.LoginRequest{Email: "Jane@IUT-Dhaka.edu", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", sess.Token)
	require.NotNil(t, sess.Profile.LastLoginAt)
	us.AssertExpectations(t)
}
