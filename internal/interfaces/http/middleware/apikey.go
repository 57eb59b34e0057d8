package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/belgrano/backend/internal/infrastructure/integration"
	"github.com/belgrano/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// APIKeyActor is the actor logged for service-to-service calls
const APIKeyActor = "api"

// APIKey guards the service-to-service routes with the shared X-API-Key.
// Rejections use the flat {"error": ...} body the counterpart service parses.
// An empty key rejects every request.
func APIKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := c.GetHeader(integration.HeaderAPIKey)
		if len(want) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key requerida"})
			return
		}
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), APIKeyActor))
		c.Next()
	}
}
