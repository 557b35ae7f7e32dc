package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/logger"
)

const (
	// RequestIDHeader is read from the client and echoed on every response
	RequestIDHeader = "X-Request-ID"
	// ContextRequestID is the gin context key holding the request id
	ContextRequestID = "request_id"

	maxRequestIDLength = 64
)

// RequestIDMiddleware tags every request with an id. A well-formed
// X-Request-ID from the client is kept, anything else is replaced by a UUID.
// The id is stored on the gin context and on the request context, so
// logger.For(ctx) in services and repositories carries it too.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// validRequestID accepts short ids made of printable ASCII without spaces
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
