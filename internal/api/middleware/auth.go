package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/dropshipapi/internal/domain"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/pkg/errors"
)

const APIKeyContextKey = "api_key"

// AuthMiddleware authenticates requests using an API key
func AuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		rawKey := strings.TrimSpace(parts[1])
		if rawKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		// Keys are stored bcrypt-hashed, so the repository verifies the raw
		// key against each active record rather than looking up a hash.
		key, err := repos.APIKey.GetByKey(c.Request.Context(), rawKey)
		if err != nil {
			logger.Warn("Failed to authenticate API key", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		if !key.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is inactive"})
			c.Abort()
			return
		}

		c.Set(APIKeyContextKey, key)
		c.Next()
	}
}

// RequirePermission ensures the authenticated key carries the given permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetAPIKeyFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			c.Abort()
			return
		}

		if !key.HasPermission(permission) {
			err := &errors.ErrForbidden{Permission: permission}
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAPIKeyFromContext retrieves the authenticated key from the Gin context
func GetAPIKeyFromContext(c *gin.Context) (*domain.APIKey, bool) {
	val, exists := c.Get(APIKeyContextKey)
	if !exists {
		return nil, false
	}

	key, ok := val.(*domain.APIKey)
	return key, ok
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(apiKey string) string {
	// Use a cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		// This should never happen, but handle it
		return ""
	}
	return string(hash)
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
