// Package requestid tags every request with an id so log lines for one
// submission or send can be correlated across middleware and handlers.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the inbound and outbound request id header. Ids supplied by a
// caller or proxy are kept so traces line up across hops.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware assigns the request id and echoes it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request id for the current request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
