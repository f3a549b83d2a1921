package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const swaggerFile = "travelbooking.swagger.json"

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	Bookings   *BookingHandler
	Products   *ProductHandler
	Webhooks   *WebhookHandler
	JWTSecret  string
	SwaggerDir string
	Readiness  map[string]ReadinessCheck
	Logger     *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(log))

	router.GET("/health", healthCheck)
	router.GET("/ready", readinessCheck(cfg.Readiness))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerDir != "" {
		router.StaticFile("/swagger/"+swaggerFile, filepath.Join(cfg.SwaggerDir, swaggerFile))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/"+swaggerFile))))
	}

	v1 := router.Group("/api/v1")
	admin := v1.Group("/admin", AdminOnly(cfg.JWTSecret))
	if cfg.Products != nil {
		cfg.Products.Register(v1)
		cfg.Products.RegisterAdmin(admin)
	}
	if cfg.Bookings != nil {
		cfg.Bookings.Register(v1)
		cfg.Bookings.RegisterAdmin(admin)
	}
	if cfg.Webhooks != nil {
		cfg.Webhooks.Register(v1)
	}
	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func readinessCheck(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}

func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
