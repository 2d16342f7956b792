package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scholarship-backend/internal/applications"
	"scholarship-backend/internal/documents"
	"scholarship-backend/internal/shared/config"
	"scholarship-backend/internal/shared/metrics"
	"scholarship-backend/internal/shared/server/middleware"
	"scholarship-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config              config.Config
	ApplicationsHandler *applications.Handler
	DocumentsHandler    *documents.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	authed := api.Group("")
	authed.Use(
		middleware.Auth(),
		middleware.RateLimit(uploadRateLimits()),
	)
	deps.ApplicationsHandler.RegisterRoutes(authed)
	deps.DocumentsHandler.RegisterRoutes(authed)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	deps.ApplicationsHandler.RegisterAdminRoutes(admin)
	deps.DocumentsHandler.RegisterAdminRoutes(admin)

	return r
}

// uploadRateLimits throttles multipart uploads harder than the rest of the
// API; other routes pass through unthrottled.
func uploadRateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOAD": {Rate: 0.5, Burst: 10},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/documents") {
				return "UPLOAD"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
