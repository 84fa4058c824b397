package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mosaico/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize is used when no limit is configured
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit rejects bodies larger than maxBytes. Declared lengths are checked
// up front; chunked bodies are cut off by http.MaxBytesReader while binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body too large",
				c.GetString(RequestIDKey),
			))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
