package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"

	"github.com/linkhubhq/linkhub/internal/email"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput marks validation failures caught before any store access.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidCredentials is returned by Authenticate for an unknown email or a
// wrong password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

const minPasswordLen = 6

// userRepo is the storage interface consumed by Service.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	FindTaken(ctx context.Context, username, email string) (string, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error)
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName *string
	Bio         *string
}

// Service implements business logic for user account management.
type Service struct {
	repo   userRepo
	mailer email.Sender
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(repo userRepo, mailer email.Sender, logger *zap.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, logger: logger}
}

// Register creates a new account with a bcrypt-hashed password.
// Returns ErrDuplicateUsername or ErrDuplicateEmail on uniqueness conflicts;
// when one registration trips both, the username conflict is reported.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !usernameRE.MatchString(in.Username) {
		return nil, fmt.Errorf("%w: username must be 3-30 characters of letters, digits, or underscore", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	// Single combined existence probe; the insert below still maps the
	// unique-constraint race to the same sentinels.
	taken, err := s.repo.FindTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	switch taken {
	case "username":
		return nil, ErrDuplicateUsername
	case "email":
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		Bio:          in.Bio,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendWelcome(ctx, u)
	s.logger.Info("user registered",
		zap.Int64("user_id", u.ID),
		zap.String("username", u.Username),
	)
	return u, nil
}

// Authenticate verifies email/password credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateProfile applies a sparse patch to the presentation fields.
// Fields absent from the patch keep their stored value; explicit nulls clear.
func (s *Service) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error) {
	u, err := s.repo.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile updated", zap.Int64("user_id", id))
	return u, nil
}

// GetByID retrieves a user by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername retrieves a user by their username slug.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Exists reports whether a user with the given id exists.
// Satisfies the links service OwnerChecker interface.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// sendWelcome delivers the post-registration email. Non-fatal: the account
// exists either way.
func (s *Service) sendWelcome(ctx context.Context, u *User) {
	name := u.Username
	if u.DisplayName != nil && *u.DisplayName != "" {
		name = *u.DisplayName
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour LinkHub page is live at /u/%s.\n\nAdd your first link from the dashboard.\n",
		name, u.Username,
	)
	if err := s.mailer.Send(ctx, u.Email, "Welcome to LinkHub", body); err != nil {
		s.logger.Warn("failed to send welcome email",
			zap.Int64("user_id", u.ID),
			zap.Error(err),
		)
	}
}
