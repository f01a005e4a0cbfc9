// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/slot-swapper/internal/config"
	"github.com/iliyamo/slot-swapper/internal/handler"
	"github.com/iliyamo/slot-swapper/internal/middleware"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Cfg     *config.Config
	Auth    *handler.AuthHandler
	Events  *handler.EventHandler
	Swaps   *handler.SwapHandler
	Metrics *middleware.Metrics
	RDB     *redis.Client
}

// Register sets up all routes on e.  Unauthenticated: health, metrics
// and the auth endpoints.  Everything else lives under /v1 behind JWT
// auth; the marketplace listing additionally sits behind the Redis
// response cache when a client is available.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.RDB))

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/v1/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	// Logout needs only the refresh token it revokes, not a live
	// access token, so it stays outside the JWT group.
	auth.POST("/logout", d.Auth.Logout)

	v1 := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret))
	v1.GET("/me", d.Auth.Me)
	v1.POST("/auth/logout-all", d.Auth.LogoutAll)

	marketCache := middleware.NewResponseCache(config.LoadCacheConfig(), d.RDB)

	v1.POST("/events", d.Events.Create)
	v1.GET("/events/user/:userId", d.Events.ListByUser)
	v1.GET("/events/swappable", d.Events.ListSwappable, marketCache)
	v1.GET("/events/:id", d.Events.GetByID)
	v1.PATCH("/events/toggle/:id", d.Events.ToggleSwappable)
	v1.DELETE("/events/:id", d.Events.Delete)

	v1.POST("/swaps", d.Swaps.Create)
	v1.GET("/swaps/:id", d.Swaps.Get)
	v1.PATCH("/swaps/:id", d.Swaps.UpdateStatus)
	v1.GET("/swap-requests/incoming", d.Swaps.Incoming)
	v1.GET("/swap-requests/outgoing", d.Swaps.Outgoing)
}
