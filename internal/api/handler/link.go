package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linkhubhq/linkhub/internal/identity"
	"github.com/linkhubhq/linkhub/internal/links"
	"github.com/linkhubhq/linkhub/internal/profilecache"
	"go.uber.org/zap"
)

// linkSvc is the subset of links.Service used by LinkHandler.
type linkSvc interface {
	Create(ctx context.Context, in links.CreateInput) (*links.Link, error)
	GetByID(ctx context.Context, id int64) (*links.Link, error)
	Update(ctx context.Context, id int64, patch links.Patch) (*links.Link, error)
	Delete(ctx context.Context, id int64) error
	TrackClick(ctx context.Context, id int64) (int, error)
}

// LinkHandler handles link CRUD and click tracking. Link edits invalidate
// the owner's cached public page; click counts ride out the cache TTL.
type LinkHandler struct {
	links  linkSvc
	tokens *identity.TokenIssuer
	cache  *profilecache.Cache[*PublicProfile]
	logger *zap.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(linkSvc linkSvc, tokens *identity.TokenIssuer, cache *profilecache.Cache[*PublicProfile], logger *zap.Logger) *LinkHandler {
	return &LinkHandler{links: linkSvc, tokens: tokens, cache: cache, logger: logger}
}

// Register mounts LinkHandler routes on the given router group.
// Click tracking is public; everything else needs a session.
func (h *LinkHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/links/:id/click", h.TrackClick)

	authed := rg.Group("/links", identity.RequireSession(h.tokens))
	{
		authed.POST("", h.CreateLink)
		authed.PATCH("/:id", h.UpdateLink)
		authed.DELETE("/:id", h.DeleteLink)
	}
}

type createLinkRequest struct {
	Title      string  `json:"title" binding:"required"`
	URL        string  `json:"url"   binding:"required"`
	Icon       *string `json:"icon"`
	OrderIndex *int    `json:"order_index"`
}

// CreateLink handles POST /links. The owner is the session subject; an
// omitted order_index appends after the owner's current last link.
func (h *LinkHandler) CreateLink(c *gin.Context) {
	claims := identity.SessionFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required", "code": "unauthenticated"})
		return
	}

	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	l, err := h.links.Create(c.Request.Context(), links.CreateInput{
		OwnerID:    claims.UserID,
		Title:      req.Title,
		URL:        req.URL,
		Icon:       req.Icon,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		switch {
		case errors.Is(err, links.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		case errors.Is(err, links.ErrOwnerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "owner not found", "code": "not_found"})
		default:
			h.logger.Error("create link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create link", "code": "internal"})
		}
		return
	}

	RecordLinkCreated()
	h.cache.Invalidate(claims.Username)
	c.JSON(http.StatusCreated, l)
}

// UpdateLink handles PATCH /links/:id with sparse body semantics.
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	id, _, ok := h.ownedLink(c)
	if !ok {
		return
	}

	var patch links.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	updated, err := h.links.Update(c.Request.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		case errors.Is(err, links.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found", "code": "not_found"})
		default:
			h.logger.Error("update link", zap.Int64("link_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update link", "code": "internal"})
		}
		return
	}

	h.cache.Invalidate(identity.SessionFromCtx(c).Username)
	c.JSON(http.StatusOK, updated)
}

// DeleteLink handles DELETE /links/:id. Hard delete; surviving links keep
// their positions.
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, _, ok := h.ownedLink(c)
	if !ok {
		return
	}

	if err := h.links.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, links.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found", "code": "not_found"})
			return
		}
		h.logger.Error("delete link", zap.Int64("link_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete link", "code": "internal"})
		return
	}

	h.cache.Invalidate(identity.SessionFromCtx(c).Username)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackClick handles POST /links/:id/click. Public: anyone viewing a page
// may click. Distinguishes missing links from disabled ones.
func (h *LinkHandler) TrackClick(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	count, err := h.links.TrackClick(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, links.ErrNotFound):
			RecordClick("not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found", "code": "not_found"})
		case errors.Is(err, links.ErrInactive):
			RecordClick("inactive")
			c.JSON(http.StatusConflict, gin.H{"error": "link is not active", "code": "link_inactive"})
		default:
			h.logger.Error("track click", zap.Int64("link_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track click", "code": "internal"})
		}
		return
	}

	RecordClick("counted")
	c.JSON(http.StatusOK, gin.H{"success": true, "click_count": count})
}

// ownedLink parses the :id param and verifies the session user owns the
// link. Foreign links read as not found so ids are not probeable.
func (h *LinkHandler) ownedLink(c *gin.Context) (int64, *links.Link, bool) {
	claims := identity.SessionFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required", "code": "unauthenticated"})
		return 0, nil, false
	}

	id, ok := parseID(c)
	if !ok {
		return 0, nil, false
	}

	l, err := h.links.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, links.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found", "code": "not_found"})
			return 0, nil, false
		}
		h.logger.Error("get link", zap.Int64("link_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load link", "code": "internal"})
		return 0, nil, false
	}
	if l.OwnerID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found", "code": "not_found"})
		return 0, nil, false
	}
	return id, l, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id", "code": "validation"})
		return 0, false
	}
	return id, true
}
