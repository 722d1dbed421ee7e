package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/middleware"
)

// Routes is implemented by HTTP handlers. public is mounted under /api/v1
// without authentication, protected behind the bearer-token middleware.
type Routes interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// NewRouter builds the gin engine with the shared middleware stack, the
// health and metrics endpoints, static photo serving and all handler routes.
func NewRouter(appCtx *app.AppContext, routes ...Routes) *gin.Engine {
	cfg := appCtx.Config
	log := appCtx.Logger
	if log == nil {
		log = logger.L()
	}
	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.AccessLog(log),
		middleware.Metrics(),
		cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.KeyRequestID},
			ExposeHeaders:    []string{middleware.KeyRequestID},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
		middleware.RateLimit(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	r.GET("/health", healthHandler(appCtx))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Upload.Dir != "" {
		r.Static("/images", cfg.Upload.Dir)
	}

	api := r.Group("/api/v1")
	protected := api.Group("", middleware.AuthJWT(appCtx.JWT))
	for _, rt := range routes {
		rt.RegisterRoutes(api, protected)
	}

	return r
}

// healthHandler reports 200 when the database answers; Redis is informative.
func healthHandler(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		body := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			body["status"], body["database"] = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if appCtx.RedisCache != nil {
			body["redis"] = "ok"
			if err := appCtx.RedisCache.Ping(ctx); err != nil {
				body["redis"] = "unreachable"
			}
		}
		c.JSON(code, body)
	}
}

// NewHTTPServer wraps handler in an http.Server bound to the configured
// address.
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
