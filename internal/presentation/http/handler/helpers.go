package handler

import (
	"github.com/gin-gonic/gin"
)

// GetRequestID extracts the request ID set by the logger middleware
func GetRequestID(c *gin.Context) string {
	requestID, exists := c.Get("request_id")
	if !exists {
		return ""
	}
	id, _ := requestID.(string)
	return id
}
