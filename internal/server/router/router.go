package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/handlers"
	"github.com/mamadbah2/palmtrack/internal/server/middleware"
)

// Handlers groups the HTTP adapters mounted under /api.
type Handlers struct {
	Neera      *handlers.NeeraHandler
	Processing *handlers.ProcessingHandler
	Inventory  *handlers.InventoryHandler
	Dashboard  *handlers.DashboardHandler
	Auth       *handlers.AuthHandler
}

// Options configures the engine.
type Options struct {
	AllowedOrigins []string
	Debug          bool
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		models.RegisterJSONFieldNames(v)
	}
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, auth middleware.TokenAuthenticator, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.Authenticate(auth, logger.Named("auth")))
	h.Neera.Register(api.Group("/neera"))
	h.Processing.Register(api.Group("/processing"))
	h.Inventory.Register(api.Group("/inventory"))
	h.Dashboard.Register(api.Group("/dashboard"))
	h.Auth.Register(api.Group("/auth"))

	logger.Info("router initialized", zap.Strings("allowed_origins", opts.AllowedOrigins))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("PATCH")
	cfg.AddAllowHeaders("Authorization")
	cfg.AddExposeHeaders("Content-Length")
	return cfg
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
