package routes

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/mini-crm/internal/config"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"github.com/sangkips/mini-crm/internal/presentation/http/handler"
	"github.com/sangkips/mini-crm/internal/presentation/http/middleware"
	"github.com/sangkips/mini-crm/internal/presentation/web"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Customer *handler.CustomerHandler
	Health   *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg    *config.Config
	Logger *zap.Logger
	DB     database.Connector
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) (*gin.Engine, error) {
	router := gin.New()

	tmpl, err := web.Templates(deps.Cfg.App.Location())
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)
	router.StaticFS("/css", web.Static())

	// Front controller: every page action is selected by ?action=
	pages := router.Group("")
	pages.Use(middleware.DatabaseGuard(deps.DB, deps.Cfg.App.ShowErrorDetail(), deps.Logger))
	for _, path := range []string{"/", "/index.php"} {
		pages.GET(path, h.Customer.Dispatch)
		pages.POST(path, h.Customer.Dispatch)
	}

	router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})

	return router, nil
}
