package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a link lookup finds no matching record.
var ErrNotFound = errors.New("link not found")

// ErrInactive is returned when click tracking hits a disabled link.
var ErrInactive = errors.New("link is not active")

const linkColumns = `id, user_id, title, url, icon, click_count, is_active, order_index, created_at, updated_at`

// Repository provides CRUD and click-accounting operations for links
// against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new link and fills in store-assigned fields. When
// orderIndex is nil the position default (one past the owner's current
// maximum, 0 for a first link) is computed inside the INSERT itself, so
// there is no read-then-write window in this process. Concurrent creations
// can still tie under weak isolation; ordering tolerates duplicates.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*Link, error) {
	var q string
	args := []any{in.OwnerID, in.Title, in.URL, in.Icon}
	if in.OrderIndex != nil {
		q = `
			INSERT INTO links (user_id, title, url, icon, order_index)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + linkColumns
		args = append(args, *in.OrderIndex)
	} else {
		q = `
			INSERT INTO links (user_id, title, url, icon, order_index)
			VALUES ($1, $2, $3, $4,
				(SELECT COALESCE(MAX(order_index) + 1, 0) FROM links WHERE user_id = $1))
			RETURNING ` + linkColumns
	}
	return r.scanOne(ctx, q, args...)
}

// GetByID retrieves a link by its numeric id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Link, error) {
	return r.scanOne(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
}

// Update applies a sparse patch and returns the post-update row.
// updated_at advances on every call, even for an empty patch.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*Link, error) {
	sets := []string{"updated_at = $2"}
	args := []any{id, time.Now().UTC()}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title.Set {
		add("title", patch.Title.Get())
	}
	if patch.URL.Set {
		add("url", patch.URL.Get())
	}
	if patch.Icon.Set {
		add("icon", patch.Icon.Value) // nil clears the column
	}
	if patch.IsActive.Set {
		add("is_active", patch.IsActive.Get())
	}
	if patch.OrderIndex.Set {
		add("order_index", patch.OrderIndex.Get())
	}

	q := `UPDATE links SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + linkColumns
	return r.scanOne(ctx, q, args...)
}

// Delete hard-deletes a link. Surviving links keep their order_index; gaps
// are expected.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns all of an owner's links, active and inactive,
// ascending by order_index with id as the stable tiebreak.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]*Link, error) {
	q := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY order_index ASC, id ASC`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	result := []*Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Title, &l.URL, &l.Icon,
			&l.ClickCount, &l.IsActive, &l.OrderIndex,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}

// ListActiveByOwner returns the owner's active links reduced to their public
// projection, in display order.
func (r *Repository) ListActiveByOwner(ctx context.Context, ownerID int64) ([]*PublicLink, error) {
	q := `
		SELECT id, title, url, icon, click_count
		FROM links
		WHERE user_id = $1 AND is_active
		ORDER BY order_index ASC, id ASC`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active links: %w", err)
	}
	defer rows.Close()

	result := []*PublicLink{}
	for rows.Next() {
		var l PublicLink
		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.Icon, &l.ClickCount); err != nil {
			return nil, fmt.Errorf("scan public link: %w", err)
		}
		result = append(result, &l)
	}
	return result, rows.Err()
}

// IncrementClick bumps click_count by one server-side and returns the new
// count. The increment runs as a single UPDATE so concurrent clicks never
// lose updates. Returns ErrInactive for a disabled link with the count
// untouched, ErrNotFound for an unknown id.
func (r *Repository) IncrementClick(ctx context.Context, id int64) (int, error) {
	var count int
	q := `
		UPDATE links
		SET click_count = click_count + 1, updated_at = $2
		WHERE id = $1 AND is_active
		RETURNING click_count`
	err := r.db.QueryRow(ctx, q, id, time.Now().UTC()).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("increment click: %w", err)
	}

	// No row matched: the link is either missing or inactive.
	var active bool
	err = r.db.QueryRow(ctx, `SELECT is_active FROM links WHERE id = $1`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check link status: %w", err)
	}
	return 0, ErrInactive
}

// ListActiveTargets returns up to limit active links for destination probing.
func (r *Repository) ListActiveTargets(ctx context.Context, limit int) ([]ProbeTarget, error) {
	q := `SELECT id, url FROM links WHERE is_active ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list probe targets: %w", err)
	}
	defer rows.Close()

	var targets []ProbeTarget
	for rows.Next() {
		var t ProbeTarget
		if err := rows.Scan(&t.ID, &t.URL); err != nil {
			return nil, fmt.Errorf("scan probe target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// scanOne executes a single-row query and scans the result into a Link.
func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*Link, error) {
	var l Link
	err := r.db.QueryRow(ctx, q, args...).Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.URL, &l.Icon,
		&l.ClickCount, &l.IsActive, &l.OrderIndex,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan link: %w", err)
	}
	return &l, nil
}
