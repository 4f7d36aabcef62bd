package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared secret on guarded routes.
const APIKeyHeader = "X-API-Key"

// apiKeyGuard rejects requests whose X-API-Key header does not equal secret.
func apiKeyGuard(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, codeMissingAPIKey, "missing API key", nil))
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, codeInvalidAPIKey, "invalid API key", nil))
			return
		}
		c.Next()
	}
}
