package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dashboard/backend/internal/handler"
	"dashboard/backend/internal/metrics"
	"dashboard/backend/internal/middleware"
	"dashboard/backend/internal/service"
)

type Options struct {
	CORSOrigins []string
	Logger      *zap.Logger
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
}

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	opts Options,
) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(opts.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	api.GET("/alarm-sounds/:sound", handler.AlarmSound)

	timers := api.Group("/timers")
	timers.Use(middleware.Auth(authService))
	timers.GET("", timerHandler.List)
	timers.POST("", timerHandler.Create)
	timers.GET("/summary", timerHandler.Summary)
	timers.PUT("/order", timerHandler.Reorder)
	timers.GET("/:id", timerHandler.Get)
	timers.PATCH("/:id", timerHandler.Update)
	timers.DELETE("/:id", timerHandler.Delete)
	timers.POST("/:id/start", timerHandler.Start)
	timers.POST("/:id/pause", timerHandler.Pause)
	timers.POST("/:id/reset", timerHandler.Reset)

	return engine
}
