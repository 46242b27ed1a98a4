package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cappelaere/wai-bee/internal/auth"
	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

// SessionKey is the gin context key holding the verified session token.
const SessionKey = "session"

// ExtractToken returns the raw session token from the request: the
// Authorization bearer header wins, the session cookie is the fallback.
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(cnst.SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// SessionAuthMiddleware creates a middleware that verifies session tokens.
// All failures produce the same generic unauthorized response.
func SessionAuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID := ExtractToken(c)
		if tokenID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token, err := authService.Verify(c.Request.Context(), tokenID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(SessionKey, token)
		c.Next()
	}
}
