package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapbooth/identity/app/entity"
	"github.com/snapbooth/identity/config"
)

var (
	ErrInvalidUsername = errors.New("invalid username format")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrWeakPassword    = errors.New("password does not meet policy requirements")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrUserNotFound    = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")

	// ErrInvalidVerification and ErrInvalidToken stay deliberately generic:
	// unknown account, wrong secret and expired secret are indistinguishable
	// to the caller.
	ErrInvalidVerification = errors.New("invalid or expired verification code")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

const mysqlErrDuplicateEntry = 1062

type userStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	ConsumeVerification(ctx context.Context, email, code string, now time.Time) (bool, error)
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error)
	ConsumeReset(ctx context.Context, token, newHash string, now time.Time) (bool, error)
}

type sessionIssuer interface {
	Issue(ctx context.Context, userID uint64) (*entity.Session, error)
}

// Notifier delivers account emails. Best-effort: the account service never
// lets a send failure surface into a registration or reset decision.
type Notifier interface {
	SendVerificationCode(to, username, code string) error
	SendResetLink(to, username, token string) error
}

type AsyncRunner func(task func())

type AccountServiceOption func(*AccountService)

type AccountService struct {
	users       userStore
	sessions    sessionIssuer
	notifier    Notifier
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewAccountService(
	users userStore,
	sessions sessionIssuer,
	notifier Notifier,
	cfg *config.Config,
	opts ...AccountServiceOption,
) *AccountService {
	svc := &AccountService{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) AccountServiceOption {
	return func(s *AccountService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// Register creates an unverified account and dispatches the verification
// code by email. The duplicate pre-check is advisory; the unique indexes on
// username and email are what guarantee exactly one concurrent registration
// wins, surfaced here through the duplicate-entry mapping.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	if !IsValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := s.cfg.PasswordPolicy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	code, err := GenerateVerificationCode(s.cfg.VerificationCodeLength)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	user := &entity.User{
		Username:         username,
		Email:            email,
		PasswordHash:     string(hashedPassword),
		IsVerified:       false,
		VerificationCode: sql.NullString{String: code, Valid: true},
		VerificationExpiry: sql.NullTime{
			Time:  now.Add(s.cfg.VerificationTTL),
			Valid: true,
		},
		ReceiveNotifications: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapDuplicateEntry(err)
	}

	s.asyncRunner(func() {
		if sendErr := s.notifier.SendVerificationCode(user.Email, user.Username, code); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", user.Email).Error("Failed to send verification email")
		}
	})

	return user, nil
}

// Verify consumes the verification code and, on success, immediately issues
// a session. All failure causes collapse into ErrInvalidVerification.
func (s *AccountService) Verify(ctx context.Context, email, code string) (*entity.Session, error) {
	if email == "" || code == "" {
		return nil, ErrInvalidVerification
	}

	ok, err := s.users.ConsumeVerification(ctx, email, code, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidVerification
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidVerification
	}

	return s.sessions.Issue(ctx, user.ID)
}

// Login authenticates by email, falling back to username lookup for
// identifiers without an "@". A correct password against an unverified
// account yields ErrNotVerified; everything else collapses into
// ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*entity.Session, error) {
	user, err := s.users.FindByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil && !strings.Contains(identifier, "@") {
		user, err = s.users.FindByUsername(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	return s.sessions.Issue(ctx, user.ID)
}

// GetUser loads the account behind an authenticated session.
func (s *AccountService) GetUser(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RequestPasswordReset issues a reset token if the email resolves to an
// account and reports success either way, so callers cannot probe for
// registered addresses.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		logrus.WithField("email", email).Debug("Password reset requested for unknown email")
		return nil
	}

	token, err := GenerateResetToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.cfg.ResetTokenTTL)

	if _, err := s.users.SetResetToken(ctx, email, token, expiry); err != nil {
		return err
	}

	s.asyncRunner(func() {
		if sendErr := s.notifier.SendResetLink(user.Email, user.Username, token); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", user.Email).Error("Failed to send password reset email")
		}
	})

	return nil
}

// ResetPassword swaps the credential through a single conditional update;
// the token is cleared on success and therefore single-use.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if err := s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ok, err := s.users.ConsumeReset(ctx, token, string(hashedPassword), time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	return nil
}

func mapDuplicateEntry(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		if strings.Contains(mysqlErr.Message, "username") {
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	}
	return err
}
