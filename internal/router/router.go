// Package router assembles the gin engine serving the gym admin API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/internal/handler"
	"github.com/noah-isme/gym-admin-api/internal/middleware"
	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/config"
	"github.com/noah-isme/gym-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gym-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gym-admin-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	Students      *handler.StudentHandler
	Plans         *handler.PlanHandler
	Registrations *handler.RegistrationHandler
	Checkins      *handler.CheckinHandler
	HelpOrders    *handler.HelpOrderHandler
	Metrics       *handler.MetricsHandler
}

// Dependencies carries the cross-cutting services the router needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	Auth        *service.AuthService
	Metrics     *service.MetricsService
	RateLimiter *middleware.RateLimiter
}

// New builds the engine. Student-facing routes are public but rate limited;
// everything else requires an operator token.
func New(deps Dependencies, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	if deps.Logger != nil {
		r.Use(logger.GinMiddleware(deps.Logger))
	}
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := deps.Config.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	public := api.Group("/students/:id", deps.RateLimiter.Middleware())
	public.GET("/checkins", h.Checkins.List)
	public.POST("/checkins", h.Checkins.Create)
	public.GET("/help-orders", h.HelpOrders.ListForStudent)
	public.POST("/help-orders", h.HelpOrders.Ask)

	admin := api.Group("", middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	admin.GET("/help-orders", h.HelpOrders.ListOpen)
	admin.POST("/help-orders/:id/answer", h.HelpOrders.Answer)

	admin.GET("/registrations", h.Registrations.List)
	admin.POST("/registrations", h.Registrations.Create)
	admin.GET("/registrations/:id", h.Registrations.Get)
	admin.PUT("/registrations/:id", h.Registrations.Update)
	admin.DELETE("/registrations/:id", h.Registrations.Delete)

	admin.GET("/students", h.Students.List)
	admin.POST("/students", h.Students.Create)
	admin.GET("/students/:id", h.Students.Get)
	admin.PUT("/students/:id", h.Students.Update)

	admin.GET("/plans", h.Plans.List)
	admin.POST("/plans", h.Plans.Create)
	admin.GET("/plans/:id", h.Plans.Get)
	admin.PUT("/plans/:id", h.Plans.Update)
	admin.DELETE("/plans/:id", h.Plans.Delete)

	return r
}
