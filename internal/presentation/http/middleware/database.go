package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"github.com/sangkips/mini-crm/internal/presentation/web"
	"go.uber.org/zap"
)

// DatabaseGuard renders the error page when no database handle can be acquired.
// The cause is shown only when debug is set.
func DatabaseGuard(conn database.Connector, debug bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := conn.Acquire(); err != nil {
			log.Error("Database unavailable",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.Error(err),
			)

			detail := ""
			if debug {
				detail = err.Error()
			}
			c.HTML(http.StatusInternalServerError, web.TemplateError, web.DatabaseError(detail))
			c.Abort()
			return
		}
		c.Next()
	}
}
