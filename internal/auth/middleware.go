package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "authClaims"

// Middleware validates the bearer token (or ?token= for websocket upgrades,
// where browsers cannot set headers) and hangs the claims on the context.
func Middleware(validator *JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// RequireAdmin gates the admin-only finalization sweep.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin role required"})
			return
		}
		c.Next()
	}
}

// SetClaims hangs validated claims on the request context.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsContextKey, claims)
}

func ClaimsFromContext(c *gin.Context) *Claims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	return ""
}
