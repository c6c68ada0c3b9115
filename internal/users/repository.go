package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateUsername is returned when a registration reuses a taken username.
var ErrDuplicateUsername = errors.New("username already taken")

// ErrDuplicateEmail is returned when a registration reuses a registered email.
var ErrDuplicateEmail = errors.New("email already registered")

const userColumns = `id, username, email, password_hash, display_name, bio, avatar_url, created_at, updated_at`

// Repository provides CRUD operations for users against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt on the user.
func (r *Repository) Create(ctx context.Context, u *User) error {
	q := `
		INSERT INTO users (username, email, password_hash, display_name, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Bio, u.AvatarURL,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindTaken checks both uniqueness constraints with a single query and
// returns the first duplicate it finds. Username collisions win over email
// collisions when the same registration trips both. Returns ("", nil) when
// both values are free.
func (r *Repository) FindTaken(ctx context.Context, username, email string) (string, error) {
	var takenUsername, takenEmail string
	q := `SELECT username, email FROM users WHERE username = $1 OR email = $2 ORDER BY (username = $1) DESC LIMIT 1`
	err := r.db.QueryRow(ctx, q, username, email).Scan(&takenUsername, &takenEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("check duplicates: %w", err)
	}
	if takenUsername == username {
		return "username", nil
	}
	return "email", nil
}

// GetByID retrieves a user by their numeric id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by exact, case-sensitive email match.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername retrieves a user by their username slug.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// UpdateProfile applies a sparse profile patch and returns the post-update
// row. updated_at advances on every call, even for an empty patch.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (*User, error) {
	sets := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC()}

	add := func(column string, value *string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.DisplayName.Set {
		add("display_name", patch.DisplayName.Value)
	}
	if patch.Bio.Set {
		add("bio", patch.Bio.Value)
	}
	if patch.AvatarURL.Set {
		add("avatar_url", patch.AvatarURL.Value)
	}

	q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	return r.scanOne(ctx, q, args...)
}

// scanOne executes a single-row query and scans the result into a User.
func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, q, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.DisplayName, &u.Bio, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
