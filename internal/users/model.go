package users

import (
	"time"

	"github.com/linkhubhq/linkhub/pkg/sparse"
)

// User represents a LinkHub account holder. The password hash never leaves
// the package boundary in serialized form.
type User struct {
	ID           int64     `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	DisplayName  *string   `json:"display_name" db:"display_name"`
	Bio          *string   `json:"bio"          db:"bio"`
	AvatarURL    *string   `json:"avatar_url"   db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"   db:"updated_at"`
}

// Public returns the account's externally visible fields.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// PublicUser is the credential-free projection returned by register, login,
// and profile updates.
type PublicUser struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfilePatch is a sparse profile update: unset fields are left alone,
// explicit nulls clear the column.
type ProfilePatch struct {
	DisplayName sparse.Field[string] `json:"display_name"`
	Bio         sparse.Field[string] `json:"bio"`
	AvatarURL   sparse.Field[string] `json:"avatar_url"`
}

// Empty reports whether the patch names no fields at all. An empty patch is
// still a valid update; it only refreshes updated_at.
func (p ProfilePatch) Empty() bool {
	return !p.DisplayName.Set && !p.Bio.Set && !p.AvatarURL.Set
}
