package api

import (
	"net/http"
	"strings"

	"github.com/codecollab-io/codecollab/auth"
	"github.com/gin-gonic/gin"
)

// contextKeyIdentity is the gin context key holding the verified claims
const contextKeyIdentity = "identity"

// tokenCookieName is the cookie carrying the bearer token for browser clients
const tokenCookieName = "token"

// RequireAuth enforces a verified bearer token on HTTP endpoints. The token
// comes from the Authorization header or the token cookie.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, http.StatusUnauthorized, ErrCodeAuthRequired, "Authentication required")
			c.Abort()
			return
		}

		claims, err := auth.Verify(token)
		if err != nil {
			RespondError(c, http.StatusUnauthorized, ErrCodeInvalidToken, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(contextKeyIdentity, claims)
		c.Next()
	}
}

// CurrentUser returns the verified identity attached by RequireAuth
func CurrentUser(c *gin.Context) *auth.Claims {
	v, exists := c.Get(contextKeyIdentity)
	if !exists {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// bearerToken extracts the token from the Authorization header or cookie
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(tokenCookieName); err == nil {
		return cookie
	}
	return ""
}
