package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/services"
)

const adminClaimsKey = "admin_claims"

// AdminAuth rejects requests without a valid admin bearer token.
func AdminAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, services.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := auth.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// WebhookSecretHeader carries the shared secret the gateway is configured with.
// The gateway may instead append it as the token query parameter.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth only lets through callers that present the shared secret. With
// no secret configured every request is refused.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(WebhookSecretHeader)
		if given == "" {
			given = c.Query("token")
		}
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			respondError(c, services.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
