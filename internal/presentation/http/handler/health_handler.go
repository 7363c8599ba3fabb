package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"github.com/sangkips/mini-crm/internal/presentation/http/dto/response"
)

// HealthHandler reports whether the service can reach its database
type HealthHandler struct {
	conn    database.Connector
	service string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(conn database.Connector, service string) *HealthHandler {
	return &HealthHandler{conn: conn, service: service}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	status := gin.H{
		"status":   "ok",
		"service":  h.service,
		"database": "up",
	}

	if err := h.ping(c); err != nil {
		_ = c.Error(err)
		status["status"] = "degraded"
		status["database"] = "down"
		response.Failure(c, http.StatusServiceUnavailable, "Database unavailable", status)
		return
	}

	response.Success(c, http.StatusOK, "Service healthy", status)
}

func (h *HealthHandler) ping(c *gin.Context) error {
	db, err := h.conn.Acquire()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(c.Request.Context())
}
