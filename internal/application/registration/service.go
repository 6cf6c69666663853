// Package registration implements the OTP-gated signup flow and login.
//
// Registration is three steps: an OTP is mailed to an institutional
// address, verifying it yields a short-lived registration token, and
// presenting that token with a password and account name creates the
// user. The account name must follow the "First ... Last STUDENTID"
// convention so the student record can be derived and linked.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/infrastructure/postgres"
	"github.com/yearbook-api/internal/infrastructure/smtp"
	"github.com/yearbook-api/internal/pkg/id"
	"github.com/yearbook-api/internal/pkg/otp"
	"github.com/yearbook-api/internal/pkg/studentname"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	CreateAccount(ctx context.Context, acct postgres.NewAccount) (*domain.User, error)
}

type OTPStore interface {
	Get(ctx context.Context, email string) (*domain.OTPVerification, error)
	Upsert(ctx context.Context, email, otpHash string, expiresAt, now time.Time) error
	IncrementAttempts(ctx context.Context, email string) error
}

type TokenProvider interface {
	Sign(userID, email, role string) (string, error)
	SignRegistration(email string) (string, error)
	VerifyRegistration(tokenStr string) (string, error)
}

// Session is returned by Login and Complete: the issued bearer token
// plus the profile it authenticates.
type Session struct {
	Token   string          `json:"token"`
	Profile *domain.Profile `json:"user"`
}

type Service interface {
	RequestOTP(ctx context.Context, req domain.RequestOTPRequest) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (registrationToken string, err error)
	Complete(ctx context.Context, req domain.CompleteRegistrationRequest) (*Session, error)
	Login(ctx context.Context, req domain.LoginRequest) (*Session, error)
}

type ServiceDeps struct {
	UserRepo      UserStore
	OTPRepo       OTPStore
	Mailer        smtp.Mailer
	TokenProvider TokenProvider
	AllowedDomain string
	OTPTTL        time.Duration
	MaxAttempts   int
}

type service struct {
	users         UserStore
	otps          OTPStore
	mailer        smtp.Mailer
	tokens        TokenProvider
	allowedDomain string
	otpTTL        time.Duration
	maxAttempts   int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:         deps.UserRepo,
		otps:          deps.OTPRepo,
		mailer:        deps.Mailer,
		tokens:        deps.TokenProvider,
		allowedDomain: deps.AllowedDomain,
		otpTTL:        deps.OTPTTL,
		maxAttempts:   deps.MaxAttempts,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = 10 * time.Minute
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = domain.MaxOTPAttempts
	}
	return s
}

func (s *service) RequestOTP(ctx context.Context, req domain.RequestOTPRequest) error {
	email := normalizeEmail(req.Email)
	if !strings.HasSuffix(email, "@"+s.allowedDomain) {
		return fmt.Errorf("email must belong to %s: %w", s.allowedDomain, domain.ErrBadRequest)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	code, err := otp.Generate(otp.DefaultLength)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	payload, err := otp.NewUpdatePayload(code, s.otpTTL, now)
	if err != nil {
		return err
	}
	if err := s.otps.Upsert(ctx, email, payload.OTPHash, payload.ExpiresAt, now); err != nil {
		return err
	}

	subject, body := smtp.OTPMessage(code, int(s.otpTTL.Minutes()))
	if err := s.mailer.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("send otp email: %w", domain.ErrUnavailable)
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (string, error) {
	email := normalizeEmail(req.Email)
	v, err := s.otps.Get(ctx, email)
	if err != nil {
		return "", fmt.Errorf("no pending verification for email: %w", domain.ErrNotFound)
	}
	if v.Attempts >= s.maxAttempts {
		return "", fmt.Errorf("verification attempts exhausted, request a new code: %w", domain.ErrTooManyAttempts)
	}
	if otp.IsExpired(v.ExpiresAt, time.Now().UTC()) {
		return "", fmt.Errorf("code expired, request a new one: %w", domain.ErrExpired)
	}
	if !otp.Verify(req.OTP, v.OTPHash) {
		if err := s.otps.IncrementAttempts(ctx, email); err != nil {
			slog.Warn("failed to record otp attempt", "email", email, "err", err)
		}
		return "", fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}

	// The row stays until registration completes, so a lost token can
	// be recovered by re-verifying within the TTL.
	return s.tokens.SignRegistration(email)
}

func (s *service) Complete(ctx context.Context, req domain.CompleteRegistrationRequest) (*Session, error) {
	email, err := s.tokens.VerifyRegistration(req.RegistrationToken)
	if err != nil {
		return nil, fmt.Errorf("invalid registration token: %w", domain.ErrUnauthorized)
	}

	parsed, ok := studentname.Parse(req.AccountName)
	if !ok {
		return nil, fmt.Errorf("account name must be \"First Last STUDENTID\" with a 9-digit ID: %w", domain.ErrBadRequest)
	}
	if parsed.Department == "" {
		return nil, fmt.Errorf("student ID %s maps to no known department: %w", parsed.StudentID, domain.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u, err := s.users.CreateAccount(ctx, postgres.NewAccount{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  parsed.FullName,
		Role:         domain.RoleStudent,
		Student: domain.Student{
			StudentID:      parsed.StudentID,
			FirstName:      parsed.FirstName,
			LastName:       parsed.LastName,
			Email:          email,
			Department:     parsed.Department,
			GraduationYear: parsed.BatchGraduationYear(domain.ProgramYears),
		},
		Now: now,
	})
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, u.UserID, u.Email, u.Role, now)
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	p, err := s.users.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if p.PasswordHash == "" {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	now := time.Now().UTC()
	if err := s.users.RecordLogin(ctx, p.UserID, now); err != nil {
		slog.Warn("failed to record login time", "user_id", p.UserID, "err", err)
	}

	token, err := s.tokens.Sign(p.UserID, p.Email, p.Role)
	if err != nil {
		return nil, err
	}
	last := now
	p.LastLoginAt = &last
	return &Session{Token: token, Profile: p}, nil
}

// startSession loads the freshly created profile and issues its bearer.
func (s *service) startSession(ctx context.Context, userID, email, role string, now time.Time) (*Session, error) {
	token, err := s.tokens.Sign(userID, email, role)
	if err != nil {
		return nil, err
	}
	p, err := s.users.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Profile: p}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
