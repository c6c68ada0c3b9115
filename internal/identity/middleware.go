package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxSessionClaims = "linkhub_session_claims"

// RequireSession returns a Gin middleware that enforces a valid session
// Bearer token. On success it injects the *SessionClaims into the context.
func RequireSession(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer session token required",
				"code":  "unauthenticated",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
				"code":  "unauthenticated",
			})
			return
		}

		c.Set(ctxSessionClaims, claims)
		c.Next()
	}
}

// SessionFromCtx retrieves the claims injected by RequireSession.
// Returns nil if no session is present in the context.
func SessionFromCtx(c *gin.Context) *SessionClaims {
	v, _ := c.Get(ctxSessionClaims)
	claims, _ := v.(*SessionClaims)
	return claims
}
