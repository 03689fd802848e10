package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"

	"rkd-client/internal/auth"
	"rkd-client/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all routes
func (a *App) setupRoutes() {
	a.setupOperationalRoutes()
	a.setupAPIRoutes()
}

// setupOperationalRoutes configures health, metrics and profiling endpoints
func (a *App) setupOperationalRoutes() {
	a.Router.GET("/health", a.SessionHandler.Health)

	// Expose Prometheus metrics endpoint
	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Expose pprof profiling endpoints (disable in production)
	if os.Getenv("ENV") != "production" {
		a.Router.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}
}

// setupAPIRoutes configures API routes
func (a *App) setupAPIRoutes() {
	api := a.Router.Group("/api")
	{
		// Public routes
		api.GET("/session", a.SessionHandler.GetSession)

		// Protected routes
		token := api.Group("/token")
		token.Use(middleware.AuthMiddleware(a.Config.JWT.Secret, auth.ScopeToken))
		{
			token.GET("", a.SessionHandler.GetToken)
			token.POST("/refresh", a.SessionHandler.RefreshToken)
		}
	}
}
