package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrInvalidInput marks validation failures caught before any store access.
var ErrInvalidInput = errors.New("invalid input")

// ErrOwnerNotFound is returned when a link creation references a missing user.
var ErrOwnerNotFound = errors.New("owner not found")

const maxTitleLen = 100

// linkRepo is the storage interface consumed by Service.
type linkRepo interface {
	Create(ctx context.Context, in CreateInput) (*Link, error)
	GetByID(ctx context.Context, id int64) (*Link, error)
	Update(ctx context.Context, id int64, patch Patch) (*Link, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]*Link, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]*PublicLink, error)
	IncrementClick(ctx context.Context, id int64) (int, error)
}

// OwnerChecker reports whether a user id references an existing account.
// Satisfied by users.Service.
type OwnerChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service implements link lifecycle, ordering, and click accounting.
type Service struct {
	repo   linkRepo
	owners OwnerChecker
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(repo linkRepo, owners OwnerChecker, logger *zap.Logger) *Service {
	return &Service{repo: repo, owners: owners, logger: logger}
}

// Create adds a link for an existing owner. An omitted OrderIndex appends:
// the new link lands one past the owner's current maximum, or at 0 for a
// first link. New links start with click_count 0 and is_active true.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Link, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		return nil, fmt.Errorf("%w: order_index must be non-negative", ErrInvalidInput)
	}

	ok, err := s.owners.Exists(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !ok {
		return nil, ErrOwnerNotFound
	}

	l, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("link created",
		zap.Int64("link_id", l.ID),
		zap.Int64("user_id", l.OwnerID),
		zap.Int("order_index", l.OrderIndex),
	)
	return l, nil
}

// Update applies a sparse patch. Fields absent from the patch keep their
// stored value; an explicit null on icon clears it. title, url, is_active,
// and order_index are non-nullable, so a null on them is a validation error.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Link, error) {
	if patch.Title.Set {
		if patch.Title.Value == nil {
			return nil, fmt.Errorf("%w: title cannot be null", ErrInvalidInput)
		}
		if err := validateTitle(*patch.Title.Value); err != nil {
			return nil, err
		}
	}
	if patch.URL.Set {
		if patch.URL.Value == nil {
			return nil, fmt.Errorf("%w: url cannot be null", ErrInvalidInput)
		}
		if err := validateURL(*patch.URL.Value); err != nil {
			return nil, err
		}
	}
	if patch.IsActive.Set && patch.IsActive.Value == nil {
		return nil, fmt.Errorf("%w: is_active cannot be null", ErrInvalidInput)
	}
	if patch.OrderIndex.Set {
		if patch.OrderIndex.Value == nil {
			return nil, fmt.Errorf("%w: order_index cannot be null", ErrInvalidInput)
		}
		if *patch.OrderIndex.Value < 0 {
			return nil, fmt.Errorf("%w: order_index must be non-negative", ErrInvalidInput)
		}
	}

	return s.repo.Update(ctx, id, patch)
}

// Delete hard-deletes a link. No other link's position changes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("link deleted", zap.Int64("link_id", id))
	return nil
}

// GetByID retrieves a link by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Link, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByOwner returns all of an owner's links in display order. A linkless
// owner gets an empty slice, not an error.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*Link, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListActiveByOwner returns the owner's active links as public projections,
// in display order.
func (s *Service) ListActiveByOwner(ctx context.Context, ownerID int64) ([]*PublicLink, error) {
	return s.repo.ListActiveByOwner(ctx, ownerID)
}

// TrackClick records one click on an active link and returns the new count.
// Each call is one real click, so the operation is deliberately not
// idempotent. Inactive links fail with ErrInactive and keep their count.
func (s *Service) TrackClick(ctx context.Context, id int64) (int, error) {
	count, err := s.repo.IncrementClick(ctx, id)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("click tracked",
		zap.Int64("link_id", id),
		zap.Int("click_count", count),
	)
	return count, nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 1 || n > maxTitleLen {
		return fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLen)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: url must be a valid absolute URL", ErrInvalidInput)
	}
	return nil
}
