package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkhubhq/linkhub/internal/identity"
	"github.com/linkhubhq/linkhub/internal/links"
	"github.com/linkhubhq/linkhub/internal/profilecache"
	"github.com/linkhubhq/linkhub/internal/users"
	"go.uber.org/zap"
)

// profileUserSvc is the subset of users.Service used by UserHandler.
type profileUserSvc interface {
	GetByUsername(ctx context.Context, username string) (*users.User, error)
	UpdateProfile(ctx context.Context, id int64, patch users.ProfilePatch) (*users.User, error)
}

// profileLinkSvc is the subset of links.Service used by UserHandler.
type profileLinkSvc interface {
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]*links.PublicLink, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*links.Link, error)
}

// PublicProfile is a user's externally visible page: presentation fields
// plus active links in display order. Numeric ids, email, credentials, and
// timestamps are deliberately absent.
type PublicProfile struct {
	Username    string              `json:"username"`
	DisplayName *string             `json:"display_name"`
	Bio         *string             `json:"bio"`
	AvatarURL   *string             `json:"avatar_url"`
	Links       []*links.PublicLink `json:"links"`
}

// UserHandler handles public profiles, the owner link listing, and profile edits.
type UserHandler struct {
	users  profileUserSvc
	links  profileLinkSvc
	tokens *identity.TokenIssuer
	cache  *profilecache.Cache[*PublicProfile]
	logger *zap.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userSvc profileUserSvc, linkSvc profileLinkSvc, tokens *identity.TokenIssuer, cache *profilecache.Cache[*PublicProfile], logger *zap.Logger) *UserHandler {
	return &UserHandler{users: userSvc, links: linkSvc, tokens: tokens, cache: cache, logger: logger}
}

// Register mounts UserHandler routes on the given router group.
func (h *UserHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/u/:username", h.GetPublicProfile)
	rg.PATCH("/users/me/profile", identity.RequireSession(h.tokens), h.UpdateMyProfile)
	rg.GET("/users/me/links", identity.RequireSession(h.tokens), h.ListMyLinks)
}

// GetPublicProfile handles GET /u/:username, the public page payload.
// Inactive links are excluded entirely, not flagged. Responses are served
// from the profile cache while fresh.
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	username := c.Param("username")
	ctx := c.Request.Context()

	if cached, ok := h.cache.Get(username); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	u, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
			return
		}
		h.logger.Error("get user by username", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile", "code": "internal"})
		return
	}

	active, err := h.links.ListActiveByOwner(ctx, u.ID)
	if err != nil {
		h.logger.Error("list active links", zap.Int64("user_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile", "code": "internal"})
		return
	}

	profile := &PublicProfile{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Links:       active,
	}
	h.cache.Set(username, profile)
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile handles PATCH /users/me/profile. The body is sparse:
// absent keys leave columns untouched, explicit nulls clear them.
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	claims := identity.SessionFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required", "code": "unauthenticated"})
		return
	}

	var patch users.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, patch)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
			return
		}
		h.logger.Error("update profile", zap.Int64("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile", "code": "internal"})
		return
	}

	h.cache.Invalidate(claims.Username)
	c.JSON(http.StatusOK, u.Public())
}

// ListMyLinks handles GET /users/me/links: all of the owner's links,
// active and inactive, in display order.
func (h *UserHandler) ListMyLinks(c *gin.Context) {
	claims := identity.SessionFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required", "code": "unauthenticated"})
		return
	}

	list, err := h.links.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list owner links", zap.Int64("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links", "code": "internal"})
		return
	}
	if list == nil {
		list = []*links.Link{}
	}

	c.JSON(http.StatusOK, gin.H{"links": list, "count": len(list)})
}
