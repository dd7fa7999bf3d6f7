package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

// BodySizeLimit rejects any request whose body exceeds maxBytes with 413.
// Requests without a Content-Length header are still capped mid-read by
// MaxBytesReader, which surfaces as a bind error in the handler.
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			utils.SendError(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
