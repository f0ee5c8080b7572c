package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/server/handlers"
	"github.com/mamadbah2/aviario/internal/telemetry"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Webhook    *handlers.WebhookHandler
	Batches    *handlers.BatchHandler
	Indicators *handlers.IndicatorHandler
	Finance    *handlers.FinanceHandler
	Husbandry  *handlers.HusbandryHandler
	Targets    *handlers.TargetHandler
}

// New wires the Gin engine with required routes and middlewares. metrics may
// be nil, in which case /metrics is not mounted.
func New(h Handlers, metrics *telemetry.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.GET("/webhook", h.Webhook.Verify)
	r.POST("/webhook", h.Webhook.Receive)
	r.POST("/send-message", h.Webhook.SendMessage)

	api := r.Group("/api")

	b := api.Group("/batches")
	b.POST("", h.Batches.Create)
	b.GET("", h.Batches.List)
	b.GET("/:id", h.Batches.Get)
	b.POST("/:id/finalize", h.Batches.Finalize)
	b.POST("/:id/weeks", h.Batches.SubmitWeek)
	b.GET("/:id/weeks", h.Batches.Weeks)
	b.GET("/:id/weeks/:week/history", h.Batches.WeekHistory)
	b.GET("/:id/weekly-form", h.Batches.FormDefaults)

	b.GET("/:id/indicators", h.Indicators.Get)
	b.GET("/:id/indicators.csv", h.Indicators.CSV)
	b.GET("/:id/indicators/latest-report", h.Indicators.LatestSnapshot)

	b.POST("/:id/costs", h.Finance.AddCost)
	b.POST("/:id/revenues", h.Finance.AddRevenue)
	b.GET("/:id/finance", h.Finance.Summary)

	b.POST("/:id/eggs", h.Husbandry.AddEggs)
	b.GET("/:id/eggs", h.Husbandry.Eggs)
	b.GET("/:id/eggs/monthly", h.Husbandry.MonthlyEggs)
	b.POST("/:id/water", h.Husbandry.AddWater)
	b.GET("/:id/water", h.Husbandry.Water)
	b.POST("/:id/treatments", h.Husbandry.AddTreatment)
	b.GET("/:id/treatments", h.Husbandry.Treatments)

	t := api.Group("/targets")
	t.PUT("", h.Targets.Upsert)
	t.GET("", h.Targets.List)
	t.GET("/breeds", h.Targets.Breeds)
	t.DELETE("/:id", h.Targets.Delete)
	t.POST("/import", h.Targets.Import)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

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

// metricsMiddleware labels requests by route template so ids do not explode
// the label cardinality.
func metricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
