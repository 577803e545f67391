// Package router wires handlers, middleware and route groups onto the
// Echo instance.  Authorization is layered here, not inside handlers:
// every protected group gets the session extractor, and role gates are
// declared next to the routes they guard so the policy is readable in
// one place.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jetci/wecare-app-sub000/internal/config"
	"github.com/jetci/wecare-app-sub000/internal/handler"
	"github.com/jetci/wecare-app-sub000/internal/middleware"
	"github.com/jetci/wecare-app-sub000/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Patients      *handler.PatientHandler
	Rides         *handler.RideHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
	Reports       *handler.ReportHandler
}

// Register mounts all routes.  rdb may be nil; rate limiting and
// response caching then degrade to pass-throughs.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	// Unauthenticated auth operations.  Rate limited: login and
	// refresh are the credential-guessing surface.
	authGroup := e.Group("/v1/auth", limiter)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Session-scoped auth operations.
	session := e.Group("/v1/auth", middleware.Authenticate(cfg.JWTSecret))
	session.GET("/profile", h.Auth.Profile)
	session.PUT("/profile", h.Auth.UpdateProfile)

	// Protected resource surface.  Role gates are per-group; per-row
	// ownership checks live in the handlers because they need the
	// loaded row.
	v1 := e.Group("/v1", middleware.Authenticate(cfg.JWTSecret))

	patients := v1.Group("/patients")
	patients.POST("", h.Patients.Create)
	patients.GET("", h.Patients.List)
	patients.GET("/:id", h.Patients.Get)
	patients.PUT("/:id", h.Patients.Update)
	patients.DELETE("/:id", h.Patients.Delete)

	rides := v1.Group("/rides")
	rides.POST("", h.Rides.Create)
	rides.GET("", h.Rides.List)
	rides.GET("/:id", h.Rides.Get)
	rides.PATCH("/:id/assign", h.Rides.Assign)
	rides.PATCH("/:id/status", h.Rides.UpdateStatus)

	notifications := v1.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.PATCH("/:id/read", h.Notifications.MarkRead)

	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin, model.RoleDeveloper))
	admin.GET("/users", h.Admin.ListUsers)
	admin.PATCH("/users/:id/approve", h.Admin.Approve)
	admin.PATCH("/users/:id/disable", h.Admin.Disable)

	reports := v1.Group("/reports",
		middleware.RequireRole(model.RoleExecutive, model.RoleAdmin, model.RoleDeveloper),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	reports.GET("/rides/summary", h.Reports.RideSummary)
}
