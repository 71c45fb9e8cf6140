package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/renningen-dev/bobbervox/pkg/cache"
	"github.com/renningen-dev/bobbervox/pkg/logger"
)

// TestUserID is the identity assigned to every request when token
// verification is disabled (local development).
const TestUserID = "test-user"

const tokenCacheTTL = 5 * time.Minute

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	// VerifyURL is the identity service endpoint tokens are checked
	// against. Empty disables authentication.
	VerifyURL string

	// PublicPaths are path prefixes served without a token.
	PublicPaths []string

	// TokenCache avoids re-verifying the same token on every request.
	TokenCache cache.Cache
}

type verifyResponse struct {
	UserID string `json:"user_id"`
}

// Auth verifies the Authorization bearer token against the identity service
// and stores the resolved user id in the request context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	client := &http.Client{Timeout: 5 * time.Second}

	return func(c *gin.Context) {
		if cfg.VerifyURL == "" {
			c.Set(UserIDKey, TestUserID)
			c.Next()
			return
		}

		for _, prefix := range cfg.PublicPaths {
			if prefix != "" && strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if cfg.TokenCache != nil {
			if v, ok := cfg.TokenCache.Get(c.Request.Context(), "auth:"+token); ok {
				if userID, ok := v.(string); ok && userID != "" {
					c.Set(UserIDKey, userID)
					c.Next()
					return
				}
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, cfg.VerifyURL, nil)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}
		req.Header.Set("Authorization", header)

		resp, err := client.Do(req)
		if err != nil {
			logger.Error("token verification request failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "token verification failed"})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}

		var vr verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil || vr.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}

		if cfg.TokenCache != nil {
			cfg.TokenCache.Set(c.Request.Context(), "auth:"+token, vr.UserID, tokenCacheTTL)
		}
		c.Set(UserIDKey, vr.UserID)
		c.Next()
	}
}
