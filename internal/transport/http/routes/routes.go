package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/handlers"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth    *usecase.AuthService
	Tokens  *usecase.TokenService
	Devices *usecase.DeviceService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Readiness   map[string]handlers.Pinger
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthHandler := handlers.NewHealthHandler(deps.Readiness)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Logger)
	deviceHandler := handlers.NewDeviceHandler(deps.Services.Devices, deps.Logger)
	requireAuth := middleware.RequireAuth(deps.Services.Tokens)

	limit := func(name string, max int) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return deps.RateLimiter.Limit(middleware.RateLimitRule{
			Name:   name,
			Limit:  max,
			Window: deps.Config.RateLimit.WindowDuration,
		})
	}

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/otp/request", limit("otp_request", deps.Config.RateLimit.ChallengeMaxPerIP), authHandler.RequestOTP)
			auth.POST("/otp/verify", limit("otp_verify", deps.Config.RateLimit.VerifyMaxPerIP), authHandler.VerifyOTP)
			auth.POST("/refresh", limit("refresh", deps.Config.RateLimit.RefreshMaxPerIP), authHandler.Refresh)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.POST("/logout-all", requireAuth, authHandler.LogoutAll)
		}

		devices := v1.Group("/devices", requireAuth)
		{
			devices.GET("", deviceHandler.List)
			devices.POST("/:id/trust", middleware.RequireRole("admin"), deviceHandler.Trust)
			devices.DELETE("/:id", deviceHandler.Revoke)
		}
	}

	return r
}
