package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the JSON envelope of the health endpoint
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    Meta        `json:"meta"`
}

// Meta identifies the request a response belongs to
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// Success sends a success response
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	send(c, statusCode, true, message, data)
}

// Failure sends an unsuccessful response that still carries data
func Failure(c *gin.Context, statusCode int, message string, data interface{}) {
	send(c, statusCode, false, message, data)
}

func send(c *gin.Context, statusCode int, ok bool, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: ok,
		Message: message,
		Data:    data,
		Meta: Meta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: c.GetString("request_id"),
		},
	})
}
