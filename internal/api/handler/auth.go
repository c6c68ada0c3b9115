package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkhubhq/linkhub/internal/identity"
	"github.com/linkhubhq/linkhub/internal/users"
	"go.uber.org/zap"
)

// authUserSvc is the subset of users.Service used by AuthHandler.
type authUserSvc interface {
	Register(ctx context.Context, in users.RegisterInput) (*users.User, error)
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	users  authUserSvc
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(userSvc authUserSvc, tokens *identity.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: userSvc, tokens: tokens, logger: logger}
}

// Register mounts the auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
	}
}

type registerRequest struct {
	Username    string  `json:"username" binding:"required"`
	Email       string  `json:"email"    binding:"required"`
	Password    string  `json:"password" binding:"required"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// authResponse is the body for both register and login: the public account
// fields plus a session token.
type authResponse struct {
	User  *users.PublicUser `json:"user"`
	Token string            `json:"token,omitempty"`
}

// RegisterUser handles POST /auth/register.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	u, err := h.users.Register(c.Request.Context(), users.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		case errors.Is(err, users.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists", "code": "conflict"})
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists", "code": "conflict"})
		default:
			h.logger.Error("register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register", "code": "internal"})
		}
		return
	}

	RecordRegistration()
	c.JSON(http.StatusCreated, authResponse{User: u.Public(), Token: h.issueToken(u)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password", "code": "unauthenticated"})
			return
		}
		h.logger.Error("login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in", "code": "internal"})
		return
	}

	c.JSON(http.StatusOK, authResponse{User: u.Public(), Token: h.issueToken(u)})
}

// issueToken signs a session token; a signing failure degrades to a
// token-less response rather than failing the auth call.
func (h *AuthHandler) issueToken(u *users.User) string {
	tok, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		h.logger.Error("issue session token", zap.Int64("user_id", u.ID), zap.Error(err))
		return ""
	}
	return tok
}
