package middleware

import (
	"github.com/gin-gonic/gin"
)

// Response headers naming the context that served the request.
const (
	OriginHeader = "X-Planner-Origin"
	StoreHeader  = "X-Planner-Store"

	originContextKey = "planner_origin"
)

// PlannerHeaders annotates every response with the process origin id and store driver,
// so clients can tell which context produced a payload.
func PlannerHeaders(origin, driver string) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyHeader(c, OriginHeader, origin)
		applyHeader(c, StoreHeader, driver)
		c.Set(originContextKey, origin)
		c.Next()
	}
}

// Origin extracts the origin stored by PlannerHeaders.
func Origin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(originContextKey)
}

func applyHeader(c *gin.Context, key, value string) {
	if c == nil || key == "" || value == "" {
		return
	}
	c.Writer.Header().Set(key, value)
}
