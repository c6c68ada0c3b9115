package links

import (
	"time"

	"github.com/linkhubhq/linkhub/pkg/sparse"
)

// Link is one entry on a user's page. OrderIndex defines display position
// among the owner's links; gaps and duplicates are allowed, ties break by id.
type Link struct {
	ID         int64     `json:"id"          db:"id"`
	OwnerID    int64     `json:"user_id"     db:"user_id"`
	Title      string    `json:"title"       db:"title"`
	URL        string    `json:"url"         db:"url"`
	Icon       *string   `json:"icon"        db:"icon"`
	ClickCount int       `json:"click_count" db:"click_count"`
	IsActive   bool      `json:"is_active"   db:"is_active"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// PublicLink is the projection of an active link on a public profile.
// No owner id, no flags, no timestamps.
type PublicLink struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Icon       *string `json:"icon"`
	ClickCount int     `json:"click_count"`
}

// CreateInput carries the fields for a new link. A nil OrderIndex means
// "append": the store assigns one past the owner's current maximum.
type CreateInput struct {
	OwnerID    int64
	Title      string
	URL        string
	Icon       *string
	OrderIndex *int
}

// Patch is a sparse link update. Only set fields change; icon is the one
// column an explicit null may clear.
type Patch struct {
	Title      sparse.Field[string] `json:"title"`
	URL        sparse.Field[string] `json:"url"`
	Icon       sparse.Field[string] `json:"icon"`
	IsActive   sparse.Field[bool]   `json:"is_active"`
	OrderIndex sparse.Field[int]    `json:"order_index"`
}

// ProbeTarget is the minimal row the destination-health prober needs.
type ProbeTarget struct {
	ID  int64
	URL string
}
