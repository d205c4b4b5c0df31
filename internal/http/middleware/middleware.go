package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/greentech/marketplace/internal/auth"
	"github.com/greentech/marketplace/internal/model"
)

const claimsContextKey = "auth_claims"

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
// instead of crashing the server.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal Server Error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RequireAuth validates the bearer token and stores the resolved claims in
// the request context. Requests without a valid identity are rejected;
// mutating endpoints always sit behind this middleware.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := resolveClaims(secret, c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid access token"})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// OptionalAuth resolves an identity when a token is present but lets
// anonymous requests through. Read-only search endpoints use this.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := resolveClaims(secret, c); ok {
			c.Set(claimsContextKey, claims)
		}
		c.Next()
	}
}

// RequireCollector rejects requests whose resolved identity does not carry
// the collector role. Must run after RequireAuth.
func RequireCollector() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.Role != model.UserRoleCollector {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "collector role required"})
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the resolved identity claims from the gin context, or
// nil for anonymous requests.
func GetClaims(c *gin.Context) *auth.Claims {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

func resolveClaims(secret string, c *gin.Context) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}

	claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}
